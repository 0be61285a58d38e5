package gen

import (
	"reflect"
	"testing"

	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/material"
)

func testLattice() *lattice.Lattice {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 2, 6, 20
	return lattice.New(cfg)
}

func TestGenerateIsDeterministic(t *testing.T) {
	dims := core.NewDims(13, 20, 13)
	a := Generate(DefaultConfig(), dims)
	b := Generate(DefaultConfig(), dims)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different terrain")
	}
	other := DefaultConfig()
	other.Seed = 99
	if reflect.DeepEqual(a, Generate(other, dims)) {
		t.Fatalf("different seeds produced identical terrain")
	}
}

func TestGeneratedTerrainBuilds(t *testing.T) {
	l := testLattice()
	d := Generate(DefaultConfig(), l.Dims())
	if err := l.Build(d, material.Default()); err != nil {
		t.Fatalf("build: %v", err)
	}
	dims := l.Dims()
	for z := 0; z < dims.Z; z++ {
		for x := 0; x < dims.X; x++ {
			idx := lattice.Index{X: x, Y: 0, Z: z}
			if l.MaterialAt(idx) != material.Bedrock {
				t.Fatalf("column (%d,%d) has no bedrock floor", x, z)
			}
			if l.Solid(lattice.Index{X: x, Y: dims.Y - 1, Z: z}) && l.MaterialAt(lattice.Index{X: x, Y: dims.Y - 1, Z: z}) != material.Rock {
				t.Fatalf("column (%d,%d) reaches the top of the lattice", x, z)
			}
		}
	}
	if l.TotalLiquid() != 0 {
		t.Fatalf("dry config produced liquid")
	}
}

func TestWaterFillsLowGround(t *testing.T) {
	l := testLattice()
	cfg := DefaultConfig()
	cfg.Params.WaterLevel = 14
	if err := l.Build(Generate(cfg, l.Dims()), material.Default()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if l.TotalLiquid() <= 0 {
		t.Fatalf("expected water below level %d", cfg.Params.WaterLevel)
	}
	dims := l.Dims()
	for i := 0; i < dims.Len(); i++ {
		if l.LiquidAt(i) > 0 && l.Unflat(i).Y >= cfg.Params.WaterLevel {
			t.Fatalf("water above the water level at %+v", l.Unflat(i))
		}
	}
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{"seed": "5", "water_level": "9", "octaves": "-1", "base_height": "1.5"})
	if c.Seed != 5 || c.Params.WaterLevel != 9 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.Params.Octaves != DefaultConfig().Params.Octaves || c.Params.BaseHeight != DefaultConfig().Params.BaseHeight {
		t.Fatalf("invalid overrides should be ignored: %+v", c.Params)
	}
}

func TestShortLatticeGetsNothing(t *testing.T) {
	if d := Generate(DefaultConfig(), core.NewDims(4, 2, 4)); len(d.Columns) != 0 {
		t.Fatalf("expected an empty description, got %d columns", len(d.Columns))
	}
}
