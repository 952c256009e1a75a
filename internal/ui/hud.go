//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"ising-mc/internal/core"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

// HUD is the side panel with +/- buttons for every adjustable parameter and
// the live readout below them.
type HUD struct {
	sim   core.Sim
	width int
	panel *ebiten.Image
	pixel *ebiten.Image

	snapshot    core.ParameterSnapshot
	rows        []controlRow
	floatSetter core.FloatParameterSetter
	intSetter   core.IntParameterSetter
	offsetX     int
}

type controlRow struct {
	control  core.ParameterControl
	value    float64
	hasValue bool
	top      int
	minus    image.Rectangle
	plus     image.Rectangle
}

// NewHUD builds a panel of the given width for sim.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0)}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for i, ctrl := range p.ParameterControls() {
			top := controlsTop + i*lineHeight
			y := top + (lineHeight-buttonSize)/2
			plus := image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
			minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
			h.rows = append(h.rows, controlRow{control: ctrl, top: top, minus: minus, plus: plus})
		}
	}
	h.floatSetter, _ = sim.(core.FloatParameterSetter)
	h.intSetter, _ = sim.(core.IntParameterSetter)
	return h
}

// Update refreshes values from the simulation and handles clicks. offsetX
// is where the panel starts on screen.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	if p, ok := h.sim.(parameterProvider); ok {
		h.snapshot = p.Parameters()
	}
	for i := range h.rows {
		row := &h.rows[i]
		param, ok := h.snapshot.Lookup(row.control.Key)
		if !ok {
			row.hasValue = false
			continue
		}
		v, err := strconv.ParseFloat(param.Value, 64)
		row.value, row.hasValue = v, err == nil
	}
	h.handleClick()
}

func (h *HUD) handleClick() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - h.offsetX
	if px < 0 {
		return
	}
	pt := image.Pt(px, my)
	for i := range h.rows {
		row := &h.rows[i]
		switch {
		case pt.In(row.minus):
			h.adjust(row, -1)
			return
		case pt.In(row.plus):
			h.adjust(row, 1)
			return
		}
	}
}

func (h *HUD) adjust(row *controlRow, dir int) {
	if !row.hasValue {
		return
	}
	next, ok := stepValue(row.control, row.value, dir)
	if !ok {
		return
	}
	applied := false
	switch row.control.Type {
	case core.ParamTypeInt:
		if h.intSetter != nil {
			applied = h.intSetter.SetIntParameter(row.control.Key, int(next))
		}
	default:
		if h.floatSetter != nil {
			applied = h.floatSetter.SetFloatParameter(row.control.Key, next)
		}
	}
	if applied {
		row.value = next
	}
}

// Draw paints the panel at offsetX, matching the scaled lattice height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	text.Draw(h.panel, "Ising controls", face, panelPadding, panelPadding+headerBaseline, headerColor)
	for i := range h.rows {
		row := &h.rows[i]
		y := row.top + labelBaseline
		text.Draw(h.panel, row.control.Label, face, panelPadding, y, labelColor)
		value, col := "--", dimColor
		if row.hasValue {
			value, col = formatValue(row.control, row.value), labelColor
		}
		w := text.BoundString(face, value).Dx()
		text.Draw(h.panel, value, face, row.minus.Min.X-buttonGap-w, y, col)

		_, canDown := stepValue(row.control, row.value, -1)
		_, canUp := stepValue(row.control, row.value, 1)
		h.drawButton(row.minus, "-", row.hasValue && canDown)
		h.drawButton(row.plus, "+", row.hasValue && canUp)
	}

	y := controlsTop + len(h.rows)*lineHeight + labelBaseline
	for _, g := range h.snapshot.Groups {
		if g.Name != "Readout" {
			continue
		}
		for _, p := range g.Params {
			text.Draw(h.panel, p.Label+": "+p.Value, face, panelPadding, y, dimColor)
			y += readoutSpacing
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	bg, fg := buttonColor, labelColor
	if !enabled {
		bg, fg = buttonDisabledColor, dimColor
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-b.Dx())/2
	y := rect.Min.Y + (rect.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

var (
	panelColor          = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	headerColor         = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor          = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimColor            = color.RGBA{R: 150, G: 150, B: 160, A: 255}
	buttonColor         = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	buttonDisabledColor = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	readoutSpacing = 18
	controlsTop    = panelPadding + headerBaseline + 14
)
