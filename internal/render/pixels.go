// Package render turns palette-indexed cross-sections into RGBA pixels.
package render

import "image/color"

// FillPalette converts cell values into RGBA pixels using a palette. Values
// past the end of the palette use its last entry. When the palette is empty
// the buffer is cleared to transparent black.
func FillPalette(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// Tint blends tint into every pixel whose weight is positive, in proportion
// to the weight clamped to [0, 1].
func Tint(buf []byte, weights []float32, tint color.RGBA) {
	for i, w := range weights {
		if !(w > 0) {
			continue
		}
		w = min(w, 1)
		base := i * 4
		buf[base+0] = mix(buf[base+0], tint.R, w)
		buf[base+1] = mix(buf[base+1], tint.G, w)
		buf[base+2] = mix(buf[base+2], tint.B, w)
	}
}

func mix(a, b uint8, w float32) uint8 {
	return uint8(float32(a)*(1-w) + float32(b)*w + 0.5)
}
