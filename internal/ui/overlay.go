//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"ising-mc/internal/chain"
	"ising-mc/internal/render"
)

// Overlay draws optional diagnostics over the lattice: domain walls (key 1)
// and a magnetisation trace (key 2).
type Overlay struct {
	chain     *chain.Chain
	scale     int
	showWalls bool
	showTrend bool

	walls   []float32
	mask    *render.MaskPainter
	history *trend
}

// NewOverlay builds an overlay for c drawn at the given scale.
func NewOverlay(c *chain.Chain, scale int) *Overlay {
	size := c.Size()
	return &Overlay{
		chain:   c,
		scale:   max(scale, 1),
		mask:    render.NewMaskPainter(size.W, size.H),
		history: newTrend(size.W * max(scale, 1)),
	}
}

// Update handles toggles and samples the magnetisation once per frame.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showWalls = !o.showWalls
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showTrend = !o.showTrend
	}
	o.history.push(o.chain.Readout().Magnetization)
}

// Reset clears the recorded trace.
func (o *Overlay) Reset() { o.history.reset() }

// Draw renders the enabled layers.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.showWalls {
		o.walls = wallWeights(o.chain.Lattice(), o.chain.Params().Anisotropy, o.walls)
		o.mask.Blit(screen, o.walls, color.RGBA{R: 230, G: 60, B: 60, A: 255}, o.scale)
	}
	if o.showTrend {
		o.drawTrend(screen)
	}
}

func (o *Overlay) drawTrend(screen *ebiten.Image) {
	size := o.chain.Size()
	w := float32(size.W * o.scale)
	h := float32(size.H*o.scale) / 4
	top := float32(size.H*o.scale) - h
	vector.DrawFilledRect(screen, 0, top, w, h, color.RGBA{A: 160}, false)
	mid := top + h/2
	vector.StrokeLine(screen, 0, mid, w, mid, 1, color.RGBA{R: 90, G: 90, B: 100, A: 255}, false)

	values := o.history.ordered()
	for i := 1; i < len(values); i++ {
		y0 := mid - float32(values[i-1])*h/2
		y1 := mid - float32(values[i])*h/2
		vector.StrokeLine(screen, float32(i-1), y0, float32(i), y1, 1, color.RGBA{R: 120, G: 220, B: 140, A: 255}, false)
	}
}
