//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"rubble/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// telemetryGroup is the snapshot group listed read-only under the controls.
const telemetryGroup = "Telemetry"

var (
	panelColor  = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor  = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	mutedColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonColor = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	idleColor   = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

// HUD renders the parameter panel to the right of the cross-section.
type HUD struct {
	sim   core.Sim
	width int
	title string
	panel *ebiten.Image
	pixel *ebiten.Image

	snapshot  core.ParameterSnapshot
	controls  []control
	telemetry []core.Parameter
	ints      core.IntParameterSetter
	floats    core.FloatParameterSetter
	offsetX   int
}

type control struct {
	ctl      core.ParameterControl
	text     string
	value    float64
	hasValue bool

	top   int
	minus image.Rectangle
	plus  image.Rectangle
}

// NewHUD constructs a HUD for sim with a panel width in pixels.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), title: "Controls"}
	if sim != nil && sim.Name() != "" {
		h.title = fmt.Sprintf("%s Controls", strings.ToUpper(sim.Name()[:1])+sim.Name()[1:])
	}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for i, pc := range p.ParameterControls() {
			top := controlsTop + i*lineHeight
			y := top + (lineHeight-buttonSize)/2
			plus := image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
			minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
			h.controls = append(h.controls, control{ctl: pc, text: "--", top: top, minus: minus, plus: plus})
		}
	}
	h.ints, _ = sim.(core.IntParameterSetter)
	h.floats, _ = sim.(core.FloatParameterSetter)
	return h
}

// Width returns the panel width.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

// Update refreshes values from the simulation and handles clicks on the
// panel, which starts at panelOffsetX in screen space.
func (h *HUD) Update(panelOffsetX int) {
	if h == nil {
		return
	}
	h.offsetX = panelOffsetX
	provider, ok := h.sim.(core.ParameterProvider)
	if !ok {
		return
	}
	h.snapshot = provider.Parameters()
	values := map[string]core.Parameter{}
	h.telemetry = h.telemetry[:0]
	for _, g := range h.snapshot.Groups {
		for _, p := range g.Params {
			values[p.Key] = p
		}
		if g.Name == telemetryGroup {
			h.telemetry = append(h.telemetry, g.Params...)
		}
	}
	for i := range h.controls {
		c := &h.controls[i]
		p, ok := values[c.ctl.Key]
		if !ok {
			c.hasValue, c.text = false, "--"
			continue
		}
		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			c.hasValue, c.text = false, "--"
			continue
		}
		c.value, c.hasValue = v, true
		c.text = formatValue(c.ctl, v)
	}
	h.handleClick()
}

func (h *HUD) handleClick() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	if mx < h.offsetX {
		return
	}
	pt := image.Pt(mx-h.offsetX, my)
	for i := range h.controls {
		c := &h.controls[i]
		switch {
		case !c.hasValue:
		case pt.In(c.minus):
			h.adjust(c, -1)
			return
		case pt.In(c.plus):
			h.adjust(c, 1)
			return
		}
	}
}

// target returns the value one step in direction and whether it stays in
// bounds.
func target(c *control, direction int) (float64, bool) {
	step := c.ctl.Step
	if step <= 0 {
		step = 1
		if c.ctl.Type == core.ParamTypeFloat {
			step = 0.05
		}
	}
	if c.ctl.Type == core.ParamTypeInt {
		step = math.Max(1, math.Round(step))
	}
	v := c.value + float64(direction)*step
	if c.ctl.HasMin && v < c.ctl.Min {
		if direction < 0 && c.value <= c.ctl.Min {
			return v, false
		}
		v = c.ctl.Min
	}
	if c.ctl.HasMax && v > c.ctl.Max {
		if direction > 0 && c.value >= c.ctl.Max {
			return v, false
		}
		v = c.ctl.Max
	}
	return v, true
}

func (h *HUD) adjust(c *control, direction int) {
	v, ok := target(c, direction)
	if !ok {
		return
	}
	switch c.ctl.Type {
	case core.ParamTypeInt:
		if h.ints != nil && h.ints.SetIntParameter(c.ctl.Key, int(v)) {
			c.value, c.text = v, formatValue(c.ctl, v)
		}
	case core.ParamTypeFloat:
		if h.floats != nil && h.floats.SetFloatParameter(c.ctl.Key, v) {
			c.value, c.text = v, formatValue(c.ctl, v)
		}
	}
}

func (h *HUD) canAdjust(c *control, direction int) bool {
	if !c.hasValue {
		return false
	}
	if c.ctl.Type == core.ParamTypeInt && h.ints == nil {
		return false
	}
	if c.ctl.Type == core.ParamTypeFloat && h.floats == nil {
		return false
	}
	_, ok := target(c, direction)
	return ok
}

// Draw paints the panel at offsetX, sized to the scaled simulation height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.title, face, panelPadding, panelPadding+headerBaseline, titleColor)
	for i := range h.controls {
		c := &h.controls[i]
		y := c.top + labelBaseline
		text.Draw(h.panel, c.ctl.Label, face, panelPadding, y, labelColor)
		col := labelColor
		if !c.hasValue {
			col = mutedColor
		}
		w := text.BoundString(face, c.text).Dx()
		text.Draw(h.panel, c.text, face, c.minus.Min.X-buttonGap-w, y, col)
		h.drawButton(c.minus, "-", h.canAdjust(c, -1))
		h.drawButton(c.plus, "+", h.canAdjust(c, 1))
	}

	y := controlsTop + len(h.controls)*lineHeight + infoSpacing
	for _, p := range h.telemetry {
		text.Draw(h.panel, p.Label, face, panelPadding, y, mutedColor)
		w := text.BoundString(face, p.Value).Dx()
		text.Draw(h.panel, p.Value, face, h.width-panelPadding-w, y, labelColor)
		y += infoLine
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool) {
	bg, fg := buttonColor, color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg, fg = idleColor, color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := r.Min.X + (r.Dx()-b.Dx())/2
	y := r.Min.Y + (r.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func formatValue(pc core.ParameterControl, v float64) string {
	if pc.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	precision := 1
	switch {
	case pc.Step > 0 && pc.Step < 0.001:
		precision = 4
	case pc.Step > 0 && pc.Step < 0.01:
		precision = 3
	case pc.Step > 0 && pc.Step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	infoSpacing    = 18
	infoLine       = 16
	controlsTop    = panelPadding + headerBaseline + 14
)
