// Package scene exposes the engine as a viewer-friendly simulation: a
// vertical cross-section of the lattice rendered through a palette.
package scene

import (
	"image/color"

	"rubble/internal/core"
	"rubble/internal/debris"
	"rubble/internal/engine"
	"rubble/internal/gen"
	"rubble/internal/lattice"
	"rubble/internal/material"
)

const waterShades = 6

// Palette slots ahead of the material colors.
const (
	cellSky uint8 = iota
	cellDebris
	cellWater
)

var (
	skyColor    = color.RGBA{R: 14, G: 16, B: 24, A: 255}
	debrisColor = color.RGBA{R: 236, G: 176, B: 64, A: 255}
)

// Scene is a generated terrain driven by the engine and viewed one z slice
// at a time.
type Scene struct {
	name string
	cfg  engine.Config
	gen  gen.Config
	eng  *engine.Engine

	slice   int
	brush   float32
	pour    float32
	cells   []uint8
	palette []color.RGBA
	matSlot map[material.ID]uint8
}

// New builds a scene and generates its terrain from cfg.Seed.
func New(name string, cfg engine.Config, g gen.Config) *Scene {
	s := &Scene{
		name:  name,
		cfg:   cfg,
		gen:   g,
		eng:   engine.New(cfg, nil, nil),
		brush: 2.5,
		pour:  6,
	}
	dims := s.eng.Lattice().Dims()
	s.slice = dims.Z / 2
	s.cells = make([]uint8, dims.X*dims.Y)
	s.buildPalette()
	s.Reset(cfg.Seed)
	return s
}

func (s *Scene) buildPalette() {
	s.palette = []color.RGBA{skyColor, debrisColor}
	for k := 0; k < waterShades; k++ {
		f := float32(k+1) / waterShades
		s.palette = append(s.palette, color.RGBA{
			R: uint8(30 - 20*f),
			G: uint8(90 + 40*f),
			B: uint8(170 + 60*f),
			A: 255,
		})
	}
	s.matSlot = map[material.ID]uint8{}
	for _, m := range s.eng.Materials().All() {
		s.matSlot[m.ID] = uint8(len(s.palette))
		s.palette = append(s.palette, m.Color)
	}
}

// Engine exposes the underlying engine.
func (s *Scene) Engine() *engine.Engine { return s.eng }

// Name returns the registered scene name.
func (s *Scene) Name() string { return s.name }

// Size is the cross-section: lattice x by lattice y.
func (s *Scene) Size() core.Size {
	d := s.eng.Lattice().Dims()
	return core.Size{W: d.X, H: d.Y}
}

// Reset regenerates the terrain with seed.
func (s *Scene) Reset(seed int64) {
	g := s.gen
	g.Seed = seed
	d := gen.Generate(g, s.eng.Lattice().Dims())
	if err := s.eng.Load(d); err != nil {
		core.Logger(s.cfg.Logger).Error("scene reset failed", "scene", s.name, "err", err)
	}
	s.eng.Tick(0)
}

// Step advances the engine by one fixed tick.
func (s *Scene) Step() {
	s.eng.Tick(core.MaxStep)
}

// Cells renders the current slice, top row first.
func (s *Scene) Cells() []uint8 {
	lat := s.eng.Lattice()
	d := lat.Dims()
	occupied := map[int]bool{}
	for _, i := range debris.Occupancy(lat, s.eng.Bodies()) {
		occupied[i] = true
	}
	for y := 0; y < d.Y; y++ {
		row := (d.Y - 1 - y) * d.X
		for x := 0; x < d.X; x++ {
			i := d.Index(x, y, s.slice)
			s.cells[row+x] = s.cellAt(lat, i, occupied[i])
		}
	}
	return s.cells
}

func (s *Scene) cellAt(lat *lattice.Lattice, i int, occupied bool) uint8 {
	if lat.SolidAt(i) {
		if slot, ok := s.matSlot[lat.MaterialAt(lat.Unflat(i))]; ok {
			return slot
		}
		return cellDebris
	}
	if occupied {
		return cellDebris
	}
	if v := lat.LiquidAt(i); v > lattice.Epsilon {
		k := int(v / lat.NodeVolume() * waterShades)
		k = max(0, min(waterShades-1, k))
		return cellWater + uint8(k)
	}
	return cellSky
}

// Palette maps cell values to colors.
func (s *Scene) Palette() []color.RGBA { return s.palette }

// Slice returns the z index being displayed.
func (s *Scene) Slice() int { return s.slice }

// MoveSlice shifts the displayed slice, clamped to the lattice.
func (s *Scene) MoveSlice(delta int) {
	d := s.eng.Lattice().Dims()
	s.slice = max(0, min(d.Z-1, s.slice+delta))
}

// cellIndex maps a cross-section cell to a lattice node.
func (s *Scene) cellIndex(x, y int) (lattice.Index, bool) {
	d := s.eng.Lattice().Dims()
	idx := lattice.Index{X: x, Y: d.Y - 1 - y, Z: s.slice}
	return idx, s.eng.Lattice().Contains(idx)
}

// Explode carves a crater centered on a cross-section cell.
func (s *Scene) Explode(x, y int) {
	idx, ok := s.cellIndex(x, y)
	if !ok {
		return
	}
	s.eng.Explode(s.eng.Lattice().Position(idx), s.brush, 1)
}

// Pour releases water centered on a cross-section cell.
func (s *Scene) Pour(x, y int) {
	idx, ok := s.cellIndex(x, y)
	if !ok {
		return
	}
	s.eng.Pour(s.eng.Lattice().Position(idx), s.brush, s.pour)
}

// Parameters reports the engine configuration plus live telemetry.
func (s *Scene) Parameters() core.ParameterSnapshot {
	cfg := s.cfg
	cfg.Fluid.Params = s.eng.Solver().Params()
	snap := cfg.Parameters()
	st := s.eng.Stats()
	snap.Groups = append(snap.Groups, core.ParameterGroup{
		Name: "View",
		Params: []core.Parameter{
			core.IntParam("slice", "Slice z", s.slice),
			core.Float32Param("brush", "Brush radius", s.brush),
		},
	}, core.ParameterGroup{
		Name: "Telemetry",
		Params: []core.Parameter{
			core.IntParam("tick", "Tick", st.Tick),
			core.IntParam("bodies", "Debris", st.Bodies),
			core.IntParam("solid", "Solid nodes", st.Solid),
			core.FloatParam("liquid", "Liquid", st.Liquid),
		},
	})
	return snap
}

// ParameterControls lists the values adjustable from the HUD.
func (s *Scene) ParameterControls() []core.ParameterControl {
	d := s.eng.Lattice().Dims()
	return []core.ParameterControl{
		{Key: "slice", Label: "Slice z", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: float64(d.Z - 1), HasMin: true, HasMax: true},
		{Key: "brush", Label: "Brush radius", Type: core.ParamTypeFloat, Step: 0.5, Min: 0.5, Max: 8, HasMin: true, HasMax: true},
		{Key: "fluid_iterations", Label: "Pressure iterations", Type: core.ParamTypeInt, Step: 5, Min: 1, Max: 200, HasMin: true, HasMax: true},
		{Key: "gravity", Label: "Gravity", Type: core.ParamTypeFloat, Step: 0.5, Min: -30, Max: 0, HasMin: true, HasMax: true},
		{Key: "vorticity", Label: "Vorticity", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 2, HasMin: true, HasMax: true},
		{Key: "friction", Label: "Friction", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 5, HasMin: true, HasMax: true},
	}
}

// SetIntParameter updates an integer control.
func (s *Scene) SetIntParameter(key string, value int) bool {
	switch key {
	case "slice":
		d := s.eng.Lattice().Dims()
		if value < 0 || value >= d.Z {
			return false
		}
		s.slice = value
		return true
	case "fluid_iterations":
		if value <= 0 {
			return false
		}
		p := s.eng.Solver().Params()
		p.Iterations = value
		s.eng.Solver().SetParams(p)
		return true
	}
	return false
}

// SetFloatParameter updates a floating point control.
func (s *Scene) SetFloatParameter(key string, value float64) bool {
	v := float32(value)
	p := s.eng.Solver().Params()
	switch key {
	case "brush":
		if v <= 0 {
			return false
		}
		s.brush = v
		return true
	case "gravity":
		p.Gravity = v
	case "vorticity":
		if v < 0 {
			return false
		}
		p.Vorticity = v
	case "friction":
		if v < 0 {
			return false
		}
		p.Friction = v
	default:
		return false
	}
	s.eng.Solver().SetParams(p)
	return true
}

func init() {
	core.Register("quarry", func(cfg map[string]string) core.Sim {
		return New("quarry", engine.FromMap(cfg), gen.FromMap(cfg))
	})
	core.Register("reservoir", func(cfg map[string]string) core.Sim {
		ec := engine.FromMap(cfg)
		gc := gen.FromMap(cfg)
		if _, ok := cfg["water_level"]; !ok {
			gc.Params.WaterLevel = ec.Lattice.Height / 2
		}
		gc.Params.Boulders = 0
		return New("reservoir", ec, gc)
	})
}
