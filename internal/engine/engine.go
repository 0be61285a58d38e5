// Package engine runs one simulation timeline over a terrain lattice: edits,
// connectivity, debris, column meshing, physics and liquid, in that order
// once per tick.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/connect"
	"rubble/internal/core"
	"rubble/internal/debris"
	"rubble/internal/fluid"
	"rubble/internal/lattice"
	"rubble/internal/material"
	"rubble/internal/mesh"
	"rubble/internal/physics"
)

// Stats summarizes the most recent tick.
type Stats struct {
	Tick         int
	Dt           float32
	Changed      int
	Islands      int
	BrokenOff    int
	Rejected     int
	Merged       int
	Bodies       int
	DirtyColumns int
	Solid        int
	Liquid       float64
	LostLiquid   float64
}

// Engine owns the lattice and every collaborator that reads or writes it.
// It is not safe for concurrent use.
type Engine struct {
	cfg Config
	log *slog.Logger

	lat       *lattice.Lattice
	materials *material.Registry
	mesher    *mesh.Mesher
	trav      *connect.Traverser
	solver    *fluid.Solver
	factory   *debris.Factory
	merger    *debris.Merger
	phys      physics.Engine
	renderer  Renderer

	bodies  map[uuid.UUID]*debris.Body
	order   []uuid.UUID
	resting []uuid.UUID
	carry   []lattice.Index

	stats Stats
	lost  float64
}

// New builds an empty engine. A nil phys gets a kinematic engine colliding
// against the lattice; a nil renderer discards output.
func New(cfg Config, phys physics.Engine, r Renderer) *Engine {
	log := core.Logger(cfg.Logger)
	cfg.Lattice.Logger = log
	cfg.Fluid.Logger = log
	cfg.Kinematic.Logger = log
	cfg.Debris.Logger = log
	cfg.Debris.Build = cfg.Build
	if cfg.Debris.Materials == nil {
		cfg.Debris.Materials = material.Default()
	}
	if r == nil {
		r = NopRenderer{}
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		lat:       lattice.New(cfg.Lattice),
		materials: cfg.Debris.Materials,
		renderer:  r,
		bodies:    map[uuid.UUID]*debris.Body{},
	}
	if phys == nil {
		phys = physics.NewKinematic(cfg.Kinematic, e.Probe)
	}
	e.phys = phys
	e.mesher = mesh.NewMesher(e.lat, cfg.Build, log)
	e.trav = connect.New(e.lat, log)
	e.solver = fluid.New(e.lat, cfg.Fluid)
	e.factory = debris.NewFactory(cfg.Debris, phys)
	e.merger = debris.NewMerger(phys, e.solver, log)
	return e
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Lattice exposes the terrain for reads. Mutations made through it are
// picked up on the next tick.
func (e *Engine) Lattice() *lattice.Lattice { return e.lat }

// Solver exposes the liquid solver for reads.
func (e *Engine) Solver() *fluid.Solver { return e.solver }

// Materials returns the material registry.
func (e *Engine) Materials() *material.Registry { return e.materials }

// Mesher exposes the column meshes.
func (e *Engine) Mesher() *mesh.Mesher { return e.mesher }

// Stats returns the telemetry of the last tick.
func (e *Engine) Stats() Stats { return e.stats }

// Bodies returns the live debris in creation order.
func (e *Engine) Bodies() []*debris.Body {
	out := make([]*debris.Body, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.bodies[id])
	}
	return out
}

// Probe reports whether a world point is below the floor or inside solid
// terrain. It is the kinematic engine's collision test.
func (e *Engine) Probe(p mgl32.Vec3) bool {
	idx := e.lat.IndexAt(p)
	if idx.Y < 0 {
		return true
	}
	return e.lat.Solid(idx)
}

// Load replaces the terrain with a declarative description. On error the
// lattice is left empty.
func (e *Engine) Load(d lattice.Description) error {
	err := e.lat.Build(d, e.materials)
	e.reset()
	if err != nil {
		return fmt.Errorf("load description: %w", err)
	}
	return nil
}

// LoadLevel decodes a flat level into the lattice. A level of another size
// or a malformed stream leaves the current terrain untouched.
func (e *Engine) LoadLevel(r io.Reader) error {
	if err := e.lat.Load(r); err != nil {
		return fmt.Errorf("load level: %w", err)
	}
	e.reset()
	return nil
}

// SaveLevel encodes the terrain. Debris still in flight is not saved.
func (e *Engine) SaveLevel(w io.Writer) error {
	if err := e.lat.Encode(w); err != nil {
		return fmt.Errorf("save level: %w", err)
	}
	return nil
}

// reset drops all debris, recomputes grounding from scratch and breaks off
// whatever the new terrain leaves floating.
func (e *Engine) reset() {
	for _, id := range e.order {
		e.phys.RemoveDynamic(id)
		e.renderer.RemoveDebris(id)
	}
	e.bodies = map[uuid.UUID]*debris.Body{}
	e.order = nil
	e.resting = nil
	e.carry = nil
	e.lost = 0
	origin := e.lat.Origin()
	e.phys.SetStatic("bedrock", physics.Descriptor{
		Friction:  1,
		Transform: mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()),
	})

	islands, err := e.trav.Full()
	if err != nil {
		e.log.Error("grounding pass failed", "err", err)
	}
	for _, isl := range islands {
		e.breakoff(isl)
	}
	e.lat.DrainChanges()
	e.lat.DrainLiquidChanges()
	e.solver.Load(e.lat)
	e.solver.Sync(e.lat, nil, debris.Occupancy(e.lat, e.Bodies()))
	e.mesher.MarkAll()
	e.stats = Stats{}
}

// Explode carves a sphere of terrain. The returned nodes are the ones whose
// iso changed.
func (e *Engine) Explode(center mgl32.Vec3, radius, strength float32) []lattice.Index {
	return e.lat.Carve(center, radius, strength)
}

// Fill sets the nodes of an index box to solid mat.
func (e *Engine) Fill(lo, hi lattice.Index, mat material.ID) []lattice.Index {
	return e.lat.Fill(lo, hi, mat)
}

// Pour adds liquid in a sphere and returns the volume actually added.
func (e *Engine) Pour(center mgl32.Vec3, radius, volume float32) float32 {
	return e.lat.Pour(center, radius, volume)
}

// Tick advances the simulation by dt seconds, clamped to core.MaxStep.
func (e *Engine) Tick(dt float32) Stats {
	dt = core.ClampStep(dt, core.MaxStep)
	st := Stats{Tick: e.stats.Tick + 1, Dt: dt}

	fresh := e.lat.DrainChanges()
	liquid := e.lat.DrainLiquidChanges()
	if len(fresh)+len(liquid) > 0 {
		e.solver.Sync(e.lat, append(append([]lattice.Index(nil), fresh...), liquid...), debris.Occupancy(e.lat, e.Bodies()))
	}
	e.mesher.MarkNodes(fresh)

	// Nodes restored or cleared last tick are traversed again so merged
	// debris that landed unsupported falls again.
	changed := append(e.carry, fresh...)
	e.carry = nil
	st.Changed = len(changed)

	if len(changed) > 0 {
		islands, err := e.trav.Update(changed)
		if err != nil {
			e.log.Error("connectivity update aborted", "err", err)
		}
		st.Islands = len(islands)
		for _, isl := range islands {
			if e.breakoff(isl) {
				st.BrokenOff++
			} else {
				st.Rejected++
			}
		}
	}

	for _, id := range e.resting {
		b, ok := e.bodies[id]
		if !ok {
			continue
		}
		e.removeBody(id)
		res := e.merger.Merge(e.lat, b, e.Bodies())
		e.lost += float64(res.Lost)
		e.renderer.RemoveDebris(id)
		st.Merged++
	}
	e.resting = e.resting[:0]

	post := e.lat.DrainChanges()
	e.lat.DrainLiquidChanges()
	e.carry = post
	e.mesher.MarkNodes(post)
	cols := e.mesher.Flush()
	st.DirtyColumns = len(cols)
	for _, cm := range cols {
		e.publishColumn(cm)
	}
	if len(post) > 0 {
		e.solver.Sync(e.lat, post, debris.Occupancy(e.lat, e.Bodies()))
	}

	if dt > 0 {
		for _, u := range e.phys.Step(dt) {
			b, ok := e.bodies[u.ID]
			if !ok {
				continue
			}
			b.Transform = u.Transform
			e.renderer.Debris(b.ID, b.Mesh, b.Transform)
			if u.AtRest && !b.AtRest {
				b.AtRest = true
				e.resting = append(e.resting, b.ID)
			}
		}
		e.solver.Sync(e.lat, nil, debris.Occupancy(e.lat, e.Bodies()))
		e.solver.Step(dt)
		e.solver.WriteBack(e.lat)
		e.renderer.Fluid(e.solver.Field())
	}

	st.Bodies = len(e.order)
	st.Solid = e.lat.CountSolid()
	st.Liquid = e.solver.Total()
	st.LostLiquid = e.lost
	e.stats = st
	e.log.Debug("tick", "n", st.Tick, "changed", st.Changed, "islands", st.Islands,
		"bodies", st.Bodies, "columns", st.DirtyColumns, "liquid", st.Liquid)
	return st
}

// breakoff turns an island into a body. It reports false when the island is
// too small or the physics engine refused it; either way the lattice is
// consistent.
func (e *Engine) breakoff(isl connect.Island) bool {
	b, ok, err := e.factory.Breakoff(e.lat, isl)
	if err != nil {
		e.log.Warn("breakoff failed", "nodes", isl.Len(), "err", err)
		return false
	}
	if !ok {
		return false
	}
	e.bodies[b.ID] = b
	e.order = append(e.order, b.ID)
	e.renderer.Debris(b.ID, b.Mesh, b.Transform)
	return true
}

func (e *Engine) removeBody(id uuid.UUID) {
	delete(e.bodies, id)
	for i, o := range e.order {
		if o == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			return
		}
	}
}

func (e *Engine) publishColumn(cm mesh.ColumnMesh) {
	key := ColumnKey(cm.ID)
	e.renderer.Column(cm.ID, cm.Mesh)
	if cm.Mesh == nil {
		e.phys.RemoveStatic(key)
		return
	}
	d := physics.Descriptor{Mesh: cm.Mesh, Transform: mgl32.Ident4()}
	if m, ok := e.materials.Get(dominantGroup(cm.Mesh)); ok {
		d.Friction, d.Restitution = m.Friction, m.Restitution
	}
	e.phys.SetStatic(key, d)
}

// dominantGroup returns the material covering the most triangles.
func dominantGroup(m *mesh.Mesh) material.ID {
	best, count := material.None, 0
	for _, g := range m.Groups {
		if g.Count > count {
			best, count = g.Material, g.Count
		}
	}
	return best
}

// ColumnKey names a column's static body.
func ColumnKey(c lattice.ColumnID) string {
	return fmt.Sprintf("column/%d/%d", c.X, c.Z)
}
