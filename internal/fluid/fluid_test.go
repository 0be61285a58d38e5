package fluid

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/material"
)

func basin(t *testing.T) *lattice.Lattice {
	t.Helper()
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 2, 3, 8
	l := lattice.New(cfg)
	d := l.Dims()
	l.Fill(lattice.Index{}, lattice.Index{X: d.X - 1, Y: 0, Z: d.Z - 1}, material.Bedrock)
	l.Fill(lattice.Index{X: 3, Y: 1, Z: 0}, lattice.Index{X: 3, Y: 2, Z: 3}, material.Rock)
	return l
}

func TestStepConservesVolume(t *testing.T) {
	for _, workers := range []int{1, 4} {
		l := basin(t)
		l.Pour(l.Position(lattice.Index{X: 2, Y: 5, Z: 2}), 2, 6)
		l.AddLiquid(1, lattice.Index{X: 5, Y: 1, Z: 5}, lattice.Index{X: 5, Y: 2, Z: 5})
		cfg := DefaultConfig()
		cfg.Workers = workers
		s := New(l, cfg)
		before := s.Total()
		if math.Abs(before-l.TotalLiquid()) > 1e-5 {
			t.Fatalf("load lost liquid: solver %f lattice %f", before, l.TotalLiquid())
		}
		for i := 0; i < 90; i++ {
			prev := s.Total()
			s.Step(1.0 / 30.0)
			if got := s.Total(); math.Abs(got-prev) > 1e-4 {
				t.Fatalf("workers=%d step %d: volume %f -> %f", workers, i, prev, got)
			}
		}
		if got := s.Total(); math.Abs(got-before) > 1e-3 {
			t.Fatalf("workers=%d: drift %f -> %f", workers, before, got)
		}
		for i := 0; i < l.Dims().Len(); i++ {
			idx := l.Unflat(i)
			v := s.Volume(idx)
			if v < 0 || v > l.NodeVolume() {
				t.Fatalf("cell %v volume %f out of range", idx, v)
			}
			if s.Obstacle(idx) && v != 0 {
				t.Fatalf("obstacle %v holds liquid", idx)
			}
		}
	}
}

func TestLiquidFalls(t *testing.T) {
	l := basin(t)
	src := lattice.Index{X: 5, Y: 6, Z: 5}
	l.AddLiquid(1, src)
	s := New(l, DefaultConfig())
	centroid := func() float64 {
		var m, sum float64
		for i := 0; i < l.Dims().Len(); i++ {
			idx := l.Unflat(i)
			v := float64(s.Volume(idx))
			m += v
			sum += v * float64(idx.Y)
		}
		return sum / m
	}
	start := centroid()
	for i := 0; i < 60; i++ {
		s.Step(1.0 / 30.0)
	}
	if end := centroid(); end >= start-1 {
		t.Fatalf("liquid did not fall: centroid %f -> %f", start, end)
	}
}

func TestStepClampsDt(t *testing.T) {
	l := basin(t)
	s := New(l, DefaultConfig())
	if got := s.Step(5); got > core.MaxStep {
		t.Fatalf("step of %f exceeded clamp %f", got, core.MaxStep)
	}
	if got := s.Step(-1); got != 0 {
		t.Fatalf("negative step should be skipped, got %f", got)
	}
}

func TestGhostAndTerrainAreObstacles(t *testing.T) {
	l := basin(t)
	s := New(l, DefaultConfig())
	if !s.Obstacle(lattice.Index{X: -1, Y: 2, Z: 2}) {
		t.Fatal("out-of-grid cells must block liquid")
	}
	if !s.Obstacle(lattice.Index{X: 3, Y: 1, Z: 1}) {
		t.Fatal("terrain must block liquid")
	}
	if s.Volume(lattice.Index{X: 99, Y: 0, Z: 0}) != 0 {
		t.Fatal("ghost cells hold no liquid")
	}
}

func TestSyncDisplacesIntoNeighbours(t *testing.T) {
	l := basin(t)
	target := lattice.Index{X: 5, Y: 3, Z: 5}
	l.AddLiquid(0.8, target)
	s := New(l, DefaultConfig())
	before := s.Total()

	i, _ := l.Flat(target)
	s.Sync(l, nil, []int{i})
	if !s.Obstacle(target) || s.Volume(target) != 0 {
		t.Fatal("occupied cell should become an empty obstacle")
	}
	if got := s.Total(); math.Abs(got-before) > 1e-5 {
		t.Fatalf("displacement lost liquid: %f -> %f", before, got)
	}

	s.Sync(l, nil, nil)
	if s.Obstacle(target) {
		t.Fatal("cell should reopen once debris leaves")
	}

	l.AddIso(1, material.Rock, lattice.Index{X: 5, Y: 4, Z: 5})
	s.Sync(l, l.DrainChanges(), nil)
	if !s.Obstacle(lattice.Index{X: 5, Y: 4, Z: 5}) {
		t.Fatal("new terrain should block liquid")
	}
}

func TestWriteBackMatchesSolver(t *testing.T) {
	l := basin(t)
	l.Pour(l.Position(lattice.Index{X: 5, Y: 4, Z: 5}), 1.5, 3)
	s := New(l, DefaultConfig())
	for i := 0; i < 20; i++ {
		s.Step(1.0 / 30.0)
	}
	s.WriteBack(l)
	if math.Abs(l.TotalLiquid()-s.Total()) > 1e-5 {
		t.Fatalf("lattice %f solver %f", l.TotalLiquid(), s.Total())
	}
	for i := 0; i < l.Dims().Len(); i++ {
		if l.IsoAt(i) >= l.Cutoff() && l.LiquidAt(i) != 0 {
			t.Fatalf("solid node %v received liquid", l.Unflat(i))
		}
	}
	f := s.Field()
	if len(f.Volume) != l.Dims().Len() {
		t.Fatalf("field has %d cells", len(f.Volume))
	}
}

func TestStillPoolSettles(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 1, 1, 2, 4
	l := lattice.New(cfg)
	l.Fill(lattice.Index{}, lattice.Index{X: 2, Y: 0, Z: 2}, material.Bedrock)
	for _, idx := range l.Box(lattice.Index{X: 0, Y: 1, Z: 0}, lattice.Index{X: 2, Y: 1, Z: 2}) {
		l.AddLiquid(1, idx)
	}
	s := New(l, DefaultConfig())
	for i := 0; i < 10; i++ {
		s.Step(1.0 / 30.0)
	}
	if !s.Settled(lattice.Index{X: 1, Y: 1, Z: 1}) {
		t.Fatal("a full pool on a floor should settle")
	}
	if got := s.Volume(lattice.Index{X: 1, Y: 1, Z: 1}); math.Abs(float64(got-1)) > 1e-4 {
		t.Fatalf("pool cell changed volume: %f", got)
	}
}

func TestOutflowRules(t *testing.T) {
	const eps = 1e-6
	at := lattice.Index{X: 2, Y: 3, Z: 2}
	cases := []struct {
		name  string
		vol   float32
		vel   [3]float32
		setup func(s *Solver, c int)
		want  [6]float32 // +x, -x, up, down, +z, -z
	}{
		{
			name:  "fuller cell below keeps sideways flow",
			vol:   0.2, vel: [3]float32{0.1, 0, 0},
			setup: func(s *Solver, c int) { s.vol[c+s.stride[dirDown]] = 0.8 },
			want:  [6]float32{0.02, 0, 0, 0, 0, 0},
		},
		{
			name:  "emptier cell below turns sideways flow down",
			vol:   0.2, vel: [3]float32{0.1, 0, 0},
			setup: func(s *Solver, c int) { s.vol[c+s.stride[dirDown]] = 0.1 },
			want:  [6]float32{0, 0, 0, 0.02, 0, 0},
		},
		{
			name:  "wall and full neighbour redistribute",
			vol:   0.2, vel: [3]float32{0.1, 0, 0},
			setup: func(s *Solver, c int) {
				s.obstacle[c+s.stride[dirDown]] = true
				s.obstacle[c+s.stride[0]] = true
				s.vol[c+s.stride[5]] = 1
			},
			want: [6]float32{0, 0.01, 0, 0, 0.01, 0},
		},
		{
			name:  "outflow rescaled to the cell volume",
			vol:   0.06, vel: [3]float32{10, 0, 10},
			setup: func(s *Solver, c int) { s.obstacle[c+s.stride[dirDown]] = true },
			want:  [6]float32{0.03, 0, 0, 0, 0.03, 0},
		},
	}
	for _, tc := range cases {
		cfg := lattice.DefaultConfig()
		cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 1, 1, 4, 6
		s := New(lattice.New(cfg), DefaultConfig())
		c, ok := s.cell(at)
		if !ok {
			t.Fatalf("%s: cell %v outside the grid", tc.name, at)
		}
		s.vol[c] = tc.vol
		s.vel[c] = mgl32.Vec3(tc.vel)
		tc.setup(s, c)

		o := make([]float32, 6)
		s.outflows(c, 1, o)
		var sum float32
		for d := range o {
			sum += o[d]
			if math.Abs(float64(o[d]-tc.want[d])) > eps {
				t.Fatalf("%s: outflows %v, want %v", tc.name, o, tc.want)
			}
		}
		if sum > tc.vol+eps {
			t.Fatalf("%s: total outflow %f exceeds volume %f", tc.name, sum, tc.vol)
		}
	}
}
