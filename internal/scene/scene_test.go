package scene

import (
	"testing"

	"rubble/internal/core"
	"rubble/internal/engine"
	"rubble/internal/gen"
)

func smallScene(t *testing.T, water int) *Scene {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Lattice.ColumnsX, cfg.Lattice.ColumnsZ, cfg.Lattice.ColumnSize, cfg.Lattice.Height = 2, 1, 6, 16
	cfg.Fluid.Workers = 1
	g := gen.DefaultConfig()
	g.Params.WaterLevel = water
	return New("test", cfg, g)
}

func TestCellsCoverCrossSection(t *testing.T) {
	s := smallScene(t, 0)
	size := s.Size()
	if size.W != 13 || size.H != 16 {
		t.Fatalf("unexpected size %+v", size)
	}
	cells := s.Cells()
	if len(cells) != size.W*size.H {
		t.Fatalf("cells length %d, want %d", len(cells), size.W*size.H)
	}
	palette := s.Palette()
	for i, c := range cells {
		if int(c) >= len(palette) {
			t.Fatalf("cell %d uses slot %d outside palette of %d", i, c, len(palette))
		}
	}
	bottom := cells[(size.H-1)*size.W]
	if bottom == cellSky {
		t.Fatalf("bottom row should be terrain")
	}
	if top := cells[0]; top != cellSky {
		t.Fatalf("top row should be sky, got slot %d", top)
	}
}

func TestExplodeOpensTerrain(t *testing.T) {
	s := smallScene(t, 0)
	before := s.Engine().Lattice().CountSolid()
	size := s.Size()
	s.Explode(size.W/2, size.H-3)
	s.Step()
	if after := s.Engine().Lattice().CountSolid(); after >= before {
		t.Fatalf("explosion removed nothing: %d -> %d solid", before, after)
	}
}

func TestReservoirHasWater(t *testing.T) {
	s := smallScene(t, 10)
	if s.Engine().Solver().Total() <= 0 {
		t.Fatalf("expected water in the reservoir")
	}
	found := false
	for _, c := range s.Cells() {
		if c >= cellWater && c < cellWater+waterShades {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no water visible in the slice")
	}
}

func TestParameterSetters(t *testing.T) {
	s := smallScene(t, 0)
	if s.SetIntParameter("slice", 99) {
		t.Fatalf("slice beyond the lattice accepted")
	}
	if !s.SetIntParameter("slice", 0) || s.Slice() != 0 {
		t.Fatalf("slice 0 rejected")
	}
	if !s.SetFloatParameter("vorticity", 0.8) || s.Engine().Solver().Params().Vorticity != 0.8 {
		t.Fatalf("vorticity not applied")
	}
	if s.SetFloatParameter("friction", -1) {
		t.Fatalf("negative friction accepted")
	}
	s.MoveSlice(-5)
	if s.Slice() != 0 {
		t.Fatalf("slice not clamped: %d", s.Slice())
	}
	keys := map[string]bool{}
	for _, g := range s.Parameters().Groups {
		for _, p := range g.Params {
			keys[p.Key] = true
		}
	}
	for _, ctrl := range s.ParameterControls() {
		if !keys[ctrl.Key] {
			t.Fatalf("control %q has no reported value", ctrl.Key)
		}
	}
}

func TestScenesRegistered(t *testing.T) {
	for _, name := range []string{"quarry", "reservoir"} {
		if _, ok := core.Sims()[name]; !ok {
			t.Fatalf("scene %q not registered", name)
		}
	}
}

func TestOverlaysMatchSliceLayout(t *testing.T) {
	s := smallScene(t, 0)
	size := s.Size()
	w, h, vx, vy := s.FlowField()
	if w != size.W || h != size.H || len(vx) != w*h || len(vy) != w*h {
		t.Fatalf("flow field %dx%d (%d,%d) does not match %+v", w, h, len(vx), len(vy), size)
	}
	mask := s.UngroundedMask()
	if len(mask) != size.W*size.H {
		t.Fatalf("mask length %d", len(mask))
	}
	for i, m := range mask {
		if m != 0 {
			t.Fatalf("freshly generated terrain has ungrounded cell %d", i)
		}
	}
	if boxes := s.DebrisBoxes(); len(boxes) != 0 {
		t.Fatalf("no debris expected, got %v", boxes)
	}
}
