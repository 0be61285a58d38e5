package debris

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/connect"
	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/material"
	"rubble/internal/mesh"
	"rubble/internal/physics"
)

// Config tunes breakoff.
type Config struct {
	Materials      *material.Registry
	Build          mesh.BuildOptions
	MinVertices    int     // smaller meshes are not turned into bodies
	DefaultDensity float32 // used for nodes without a known material
	Logger         *slog.Logger
}

// DefaultConfig returns the standard breakoff settings.
func DefaultConfig() Config {
	return Config{
		Materials:      material.Default(),
		Build:          mesh.DefaultBuildOptions(),
		MinVertices:    4,
		DefaultDensity: 2,
	}
}

// Factory converts islands into physics bodies.
type Factory struct {
	cfg  Config
	log  *slog.Logger
	phys physics.Engine
}

// NewFactory returns a factory registering bodies with phys.
func NewFactory(cfg Config, phys physics.Engine) *Factory {
	if cfg.Materials == nil {
		cfg.Materials = material.Default()
	}
	if cfg.MinVertices <= 0 {
		cfg.MinVertices = 4
	}
	return &Factory{cfg: cfg, log: core.Logger(cfg.Logger), phys: phys}
}

// Breakoff captures island into an isolated volume, meshes it and registers
// the result with the physics engine. Only after registration succeeds are
// the island's nodes cleared from lat. An island whose mesh has fewer than
// MinVertices vertices is left in place and reported with ok == false.
func (f *Factory) Breakoff(lat *lattice.Lattice, island connect.Island) (*Body, bool, error) {
	if island.Len() == 0 {
		return nil, false, nil
	}
	lo, hi := island.Bounds()
	lo = lo.Add(-1, -1, -1)
	hi = hi.Add(1, 1, 1)
	dims := core.NewDims(hi.X-lo.X+1, hi.Y-lo.Y+1, hi.Z-lo.Z+1)

	lcfg := lat.Config()
	vol := lattice.NewVolume(dims, lattice.Config{
		Spacing:    lcfg.Spacing,
		Cutoff:     lcfg.Cutoff,
		NodeVolume: lcfg.NodeVolume,
		Logger:     lcfg.Logger,
	})
	weights := map[material.ID]float32{}
	var density float32
	for _, idx := range island.Nodes {
		n := lat.Node(idx)
		vol.Restore(idx.Add(-lo.X, -lo.Y, -lo.Z), n)
		for _, c := range n.Materials() {
			weights[c.Material] += c.Weight
		}
		density += f.cfg.Materials.Density(n.Material(), f.cfg.DefaultDensity)
	}
	vol.DrainChanges()
	density /= float32(island.Len())

	m := mesh.BuildVolume(vol, f.cfg.Build)
	if m.VertexCount() < f.cfg.MinVertices {
		f.log.Warn("island too small for a body", "nodes", island.Len(), "vertices", m.VertexCount())
		return nil, false, nil
	}

	dominant := material.None
	var best float32
	for id, w := range weights {
		if w > best || (w == best && id < dominant) {
			dominant, best = id, w
		}
	}
	mat, _ := f.cfg.Materials.Get(dominant)

	origin := lat.Position(lo)
	b := &Body{
		ID:          uuid.New(),
		Volume:      vol,
		Mesh:        m,
		Mass:        density * abs32(m.Volume()),
		Material:    dominant,
		Friction:    mat.Friction,
		Restitution: mat.Restitution,
		Transform:   mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()),
		Nodes:       island.Len(),
		Footprint:   footprint(vol),
	}
	if f.phys != nil {
		if err := f.phys.AddDynamic(b.Descriptor()); err != nil {
			return nil, false, fmt.Errorf("register debris: %w", err)
		}
	}
	for _, idx := range island.Nodes {
		lat.ClearNode(idx)
	}
	f.log.Debug("debris created", "id", b.ID, "nodes", island.Len(), "mass", b.Mass)
	return b, true, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
