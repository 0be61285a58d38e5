//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads a palette-indexed grid into an ebiten image and draws
// it scaled.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a w by h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{
		w:   w,
		h:   h,
		img: ebiten.NewImage(w, h),
		buf: make([]byte, w*h*4),
	}
}

// Pixels exposes the RGBA staging buffer for overlays applied before Flush.
func (p *GridPainter) Pixels() []byte { return p.buf }

// Fill writes cells into the staging buffer.
func (p *GridPainter) Fill(cells []uint8, palette []color.RGBA) {
	FillPalette(p.buf, cells, palette)
}

// Flush uploads the staging buffer and draws it at the given scale.
func (p *GridPainter) Flush(screen *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	p.img.WritePixels(p.buf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(p.img, op)
}
