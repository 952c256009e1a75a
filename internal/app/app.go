//go:build ebiten

package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ising-mc/internal/chain"
	"ising-mc/internal/core"
	"ising-mc/internal/render"
	"ising-mc/internal/ui"
)

// Game adapts a live chain to the ebiten.Game interface.
type Game struct {
	chain   *chain.Chain
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay
	clock   *core.FixedStep

	scale      int
	panelWidth int
	paused     bool
	tickOnce   bool
	seed       int64
}

// New constructs a Game for the provided chain. The chain advances at tps
// steps per second independently of the frame rate.
func New(c *chain.Chain, scale, panelWidth, tps int, seed int64) *Game {
	size := c.Size()
	return &Game{
		chain:      c,
		painter:    render.NewGridPainter(size.W, size.H, render.DefaultPalette()),
		hud:        ui.NewHUD(c, panelWidth),
		overlay:    ui.NewOverlay(c, scale),
		clock:      core.NewFixedStep(tps),
		scale:      scale,
		panelWidth: panelWidth,
		seed:       seed,
	}
}

// Reset reinitializes the chain with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.chain.Reset(seed)
	g.overlay.Reset()
	g.tickOnce = false
}

// Update handles per-frame logic and advances the chain.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}

	g.hud.Update(g.latticeWidth())
	g.overlay.Update()

	due := g.clock.Due()
	if g.paused {
		due = 0
	}
	if g.tickOnce {
		due = max(due, 1)
		g.tickOnce = false
	}
	for i := 0; i < due; i++ {
		g.chain.Step()
	}
	return nil
}

// Draw renders the lattice, the overlay and the control panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.chain.Cells(), g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.latticeWidth(), g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.latticeWidth() + g.panelWidth, g.chain.Size().H * g.scale
}

func (g *Game) latticeWidth() int { return g.chain.Size().W * g.scale }
