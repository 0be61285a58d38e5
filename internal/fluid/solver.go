// Package fluid simulates liquid on the lattice's grid. Every pass maps one
// read buffer to a fresh write buffer; buffers swap only once a pass has
// covered the whole grid, so passes can be split across goroutines.
package fluid

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"rubble/internal/core"
	"rubble/internal/lattice"
)

// snap is the volume below which a cell is considered dry.
const snap = 1e-6

// dirs are the unit vectors matching core.Neighbors6.
var dirs = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

const (
	dirUp   = 2
	dirDown = 3
)

func horizontal(d int) bool { return d != dirUp && d != dirDown }

// Solver owns the liquid state. Cell indices address a grid padded by one
// obstacle cell on every side of the lattice.
type Solver struct {
	cfg Config
	p   Params
	log *slog.Logger

	dims     core.Dims // lattice extent
	pad      core.Dims
	stride   [6]int
	h        float32
	capacity float32

	obstacle []bool
	occupied []bool

	vol, volNext   []float32
	vel, velNext   []mgl32.Vec3
	pres, presNext []float32
	div            []float32
	curl           []mgl32.Vec3
	curlMag        []float32
	out            []float32 // six outflows per cell
	inflow         []float32
	outflow        []float32
	delta          []float32
	settled        []bool
	settledNext    []bool

	steps int
}

// New allocates a solver matching lat and loads its state.
func New(lat *lattice.Lattice, cfg Config) *Solver {
	cfg = cfg.normalized()
	dims := lat.Dims()
	pad := dims.Pad(1)
	n := pad.Len()
	s := &Solver{
		cfg:         cfg,
		p:           cfg.Params,
		log:         core.Logger(cfg.Logger),
		dims:        dims,
		pad:         pad,
		h:           lat.Spacing(),
		capacity:    lat.NodeVolume(),
		obstacle:    make([]bool, n),
		occupied:    make([]bool, n),
		vol:         make([]float32, n),
		volNext:     make([]float32, n),
		vel:         make([]mgl32.Vec3, n),
		velNext:     make([]mgl32.Vec3, n),
		pres:        make([]float32, n),
		presNext:    make([]float32, n),
		div:         make([]float32, n),
		curl:        make([]mgl32.Vec3, n),
		curlMag:     make([]float32, n),
		out:         make([]float32, 6*n),
		inflow:      make([]float32, n),
		outflow:     make([]float32, n),
		delta:       make([]float32, n),
		settled:     make([]bool, n),
		settledNext: make([]bool, n),
	}
	sx, sz, sy := 1, pad.X, pad.X*pad.Z
	s.stride = [6]int{sx, -sx, sy, -sy, sz, -sz}
	s.Load(lat)
	return s
}

// Params returns the active coefficients.
func (s *Solver) Params() Params { return s.p }

// SetParams replaces the coefficients.
func (s *Solver) SetParams(p Params) {
	c := s.cfg
	c.Params = p
	s.p = c.normalized().Params
}

// Steps returns the number of steps taken.
func (s *Solver) Steps() int { return s.steps }

func (s *Solver) cell(idx lattice.Index) (int, bool) {
	if !s.dims.Contains(idx.X, idx.Y, idx.Z) {
		return 0, false
	}
	return s.pad.Index(idx.X+1, idx.Y+1, idx.Z+1), true
}

func (s *Solver) cellOfFlat(i int) int {
	x, y, z := s.dims.Coords(i)
	return s.pad.Index(x+1, y+1, z+1)
}

func (s *Solver) flatOfCell(c int) (int, bool) {
	x, y, z := s.pad.Coords(c)
	x, y, z = x-1, y-1, z-1
	if !s.dims.Contains(x, y, z) {
		return 0, false
	}
	return s.dims.Index(x, y, z), true
}

func (s *Solver) wet(c int) bool { return !s.obstacle[c] && s.vol[c] > snap }

func (s *Solver) full(c int) bool { return s.vol[c] >= s.capacity-s.p.SettleEpsilon }

// parallel splits [0, n) into contiguous chunks across the configured
// workers and waits for all of them.
func (s *Solver) parallel(fn func(lo, hi int)) {
	n := s.pad.Len()
	workers := s.cfg.Workers
	if workers <= 1 || n < 4096 {
		fn(0, n)
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// Step advances the liquid by dt, clamped to core.MaxStep and to the CFL
// bound of one cell per step. It returns the step actually taken.
func (s *Solver) Step(dt float32) float32 {
	dt = core.ClampStep(dt, core.MaxStep)
	if dt == 0 {
		return 0
	}
	if vmax := s.maxSpeed(); vmax > 0 && vmax*dt > s.h {
		dt = s.h / vmax
	}
	s.advect(dt)
	s.forces(dt)
	if s.p.Vorticity != 0 {
		s.vorticity(dt)
	}
	s.pressure()
	s.project()
	s.transfer(dt)
	s.settle()
	s.steps++
	return dt
}

func (s *Solver) maxSpeed() float32 {
	var m float32
	for i, v := range s.vel {
		if s.obstacle[i] {
			continue
		}
		if l := v.Len(); l > m {
			m = l
		}
	}
	return m
}

// Total returns the summed liquid volume.
func (s *Solver) Total() float64 {
	var sum float64
	for c, v := range s.vol {
		if !s.obstacle[c] {
			sum += float64(v)
		}
	}
	return sum
}

// Volume returns the liquid volume at a lattice index.
func (s *Solver) Volume(idx lattice.Index) float32 {
	if c, ok := s.cell(idx); ok {
		return s.vol[c]
	}
	return 0
}

// Velocity returns the velocity at a lattice index.
func (s *Solver) Velocity(idx lattice.Index) mgl32.Vec3 {
	if c, ok := s.cell(idx); ok {
		return s.vel[c]
	}
	return mgl32.Vec3{}
}

// Settled reports whether the cell at idx is skipped by the flow pass.
func (s *Solver) Settled(idx lattice.Index) bool {
	if c, ok := s.cell(idx); ok {
		return s.settled[c]
	}
	return true
}

// Obstacle reports whether the cell at idx blocks liquid. The padding ring
// and anything past it are solid, unlike lattice ghosts which read empty.
func (s *Solver) Obstacle(idx lattice.Index) bool {
	if c, ok := s.cell(idx); ok {
		return s.obstacle[c]
	}
	return true
}

// Field is a snapshot of the liquid for display, in lattice flat order.
type Field struct {
	Dims     core.Dims
	Volume   []float32
	Velocity []mgl32.Vec3
}

// Field copies the current volumes and velocities.
func (s *Solver) Field() Field {
	f := Field{
		Dims:     s.dims,
		Volume:   make([]float32, s.dims.Len()),
		Velocity: make([]mgl32.Vec3, s.dims.Len()),
	}
	for i := range f.Volume {
		c := s.cellOfFlat(i)
		f.Volume[i] = s.vol[c]
		f.Velocity[i] = s.vel[c]
	}
	return f
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
