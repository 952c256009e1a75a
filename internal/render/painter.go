//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads spin cells into a single image and draws it scaled.
type GridPainter struct {
	w, h    int
	img     *ebiten.Image
	buf     []byte
	palette Palette
}

// NewGridPainter allocates a painter for a grid of size w*h.
func NewGridPainter(w, h int, p Palette) *GridPainter {
	return &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h), img: ebiten.NewImage(w, h), palette: p}
}

// Blit draws cells onto dst at the given integer scale.
func (gp *GridPainter) Blit(dst *ebiten.Image, cells []uint8, scale int) {
	if len(cells) != gp.w*gp.h {
		return
	}
	fillSpinRGBA(gp.buf, cells, gp.palette)
	gp.img.WritePixels(gp.buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// MaskPainter draws a translucent per-cell weight map.
type MaskPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewMaskPainter allocates a mask painter for a grid of size w*h.
func NewMaskPainter(w, h int) *MaskPainter {
	return &MaskPainter{w: w, h: h, buf: make([]byte, 4*w*h), img: ebiten.NewImage(w, h)}
}

// Blit draws weights tinted with tint onto dst.
func (mp *MaskPainter) Blit(dst *ebiten.Image, weights []float32, tint color.RGBA, scale int) {
	if len(weights) != mp.w*mp.h {
		return
	}
	fillMaskRGBA(mp.buf, weights, tint)
	mp.img.WritePixels(mp.buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(mp.img, op)
}
