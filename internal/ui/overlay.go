//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"math"

	"rubble/internal/core"
	"rubble/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type flowProvider interface {
	FlowField() (w, h int, vx, vy []float32)
}

type groundingProvider interface {
	UngroundedMask() []float32
}

type debrisProvider interface {
	DebrisBoxes() []image.Rectangle
}

var (
	ungroundedTint = color.RGBA{R: 230, G: 60, B: 200, A: 255}
	flowColor      = color.RGBA{R: 180, G: 230, B: 255, A: 255}
	boxColor       = color.RGBA{R: 255, G: 210, B: 90, A: 255}
)

// Overlay draws optional debugging visuals over the cross-section. Keys 1-3
// toggle the grounding mask, liquid flow arrows and debris boxes.
type Overlay struct {
	sim   core.Sim
	scale int
	pixel *ebiten.Image

	showGrounding bool
	showFlow      bool
	showDebris    bool
}

// NewOverlay constructs an overlay for sim drawn at scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: max(scale, 1), showDebris: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the toggle keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showGrounding = !o.showGrounding
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showFlow = !o.showFlow
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showDebris = !o.showDebris
	}
}

// Tint applies per-cell overlays to the painter's staging pixels.
func (o *Overlay) Tint(pixels []byte) {
	if !o.showGrounding {
		return
	}
	if p, ok := o.sim.(groundingProvider); ok {
		render.Tint(pixels, p.UngroundedMask(), ungroundedTint)
	}
}

// Draw paints vector overlays on top of the scaled cross-section.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.showFlow {
		if p, ok := o.sim.(flowProvider); ok {
			o.drawFlow(screen, p)
		}
	}
	if o.showDebris {
		if p, ok := o.sim.(debrisProvider); ok {
			for _, r := range p.DebrisBoxes() {
				o.drawBox(screen, r)
			}
		}
	}
}

func (o *Overlay) drawFlow(screen *ebiten.Image, p flowProvider) {
	w, h, vx, vy := p.FlowField()
	s := float64(o.scale)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			dx, dy := float64(vx[i]), -float64(vy[i])
			speed := math.Hypot(dx, dy)
			if speed < 0.05 {
				continue
			}
			n := math.Min(speed, 4) / speed * s * 0.25
			cx, cy := (float64(x)+0.5)*s, (float64(y)+0.5)*s
			o.drawLine(screen, cx, cy, cx+dx*n, cy+dy*n, flowColor)
		}
	}
}

func (o *Overlay) drawBox(screen *ebiten.Image, r image.Rectangle) {
	s := float64(o.scale)
	x0, y0 := float64(r.Min.X)*s, float64(r.Min.Y)*s
	x1, y1 := float64(r.Max.X)*s, float64(r.Max.Y)*s
	o.drawLine(screen, x0, y0, x1, y0, boxColor)
	o.drawLine(screen, x1, y0, x1, y1, boxColor)
	o.drawLine(screen, x1, y1, x0, y1, boxColor)
	o.drawLine(screen, x0, y1, x0, y0, boxColor)
}

// drawLine stretches the 1x1 pixel image into a rotated 1px wide quad.
func (o *Overlay) drawLine(screen *ebiten.Image, x0, y0, x1, y1 float64, c color.RGBA) {
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, 1)
	op.GeoM.Rotate(math.Atan2(y1-y0, x1-x0))
	op.GeoM.Translate(x0, y0)
	op.ColorScale.ScaleWithColor(c)
	screen.DrawImage(o.pixel, op)
}
