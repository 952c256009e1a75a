package render

import "image/color"

// Palette maps the two spin states to colours.
type Palette struct {
	Up   color.RGBA
	Down color.RGBA
}

// DefaultPalette renders up spins warm and down spins dark blue.
func DefaultPalette() Palette {
	return Palette{
		Up:   color.RGBA{R: 240, G: 196, B: 92, A: 255},
		Down: color.RGBA{R: 28, G: 40, B: 84, A: 255},
	}
}

// fillSpinRGBA converts spin cells (1 up, 0 down) into RGBA pixels in buf.
func fillSpinRGBA(buf []byte, cells []uint8, p Palette) {
	for i, c := range cells {
		col := p.Down
		if c != 0 {
			col = p.Up
		}
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// fillMaskRGBA tints pixels by weight in [0, 1]; zero weight is transparent.
func fillMaskRGBA(buf []byte, weights []float32, tint color.RGBA) {
	for i, w := range weights {
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
		a := uint8(w * 255)
		base := i * 4
		// Premultiplied alpha, as ebiten expects.
		buf[base+0] = uint8(uint16(tint.R) * uint16(a) / 255)
		buf[base+1] = uint8(uint16(tint.G) * uint16(a) / 255)
		buf[base+2] = uint8(uint16(tint.B) * uint16(a) / 255)
		buf[base+3] = a
	}
}
