// Package debris spins ungrounded islands off the terrain as physics bodies
// and folds them back in once they settle.
package debris

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/lattice"
	"rubble/internal/material"
	"rubble/internal/mesh"
	"rubble/internal/physics"
)

// Body is a piece of terrain detached from the lattice. Volume holds the
// island's node samples as captured at breakoff, in local index space with
// an empty border; Mesh is expressed in the same local frame.
type Body struct {
	ID          uuid.UUID
	Volume      *lattice.Lattice
	Mesh        *mesh.Mesh
	Mass        float32
	Material    material.ID
	Friction    float32
	Restitution float32
	Transform   mgl32.Mat4
	AtRest      bool
	Nodes       int

	// Footprint holds the underside of each captured column's lowest solid
	// node, in the local frame.
	Footprint []mgl32.Vec3
}

// Descriptor returns the physics registration for b.
func (b *Body) Descriptor() physics.Descriptor {
	return physics.Descriptor{
		ID:          b.ID,
		Mesh:        b.Mesh,
		Mass:        b.Mass,
		Friction:    b.Friction,
		Restitution: b.Restitution,
		Transform:   b.Transform,
		Footprint:   b.Footprint,
	}
}

// footprint returns the bottom face center of the lowest solid node in every
// column of vol.
func footprint(vol *lattice.Lattice) []mgl32.Vec3 {
	d := vol.Dims()
	half := mgl32.Vec3{0, vol.Spacing() / 2, 0}
	var out []mgl32.Vec3
	for z := 0; z < d.Z; z++ {
		for x := 0; x < d.X; x++ {
			for y := 0; y < d.Y; y++ {
				idx := lattice.Index{X: x, Y: y, Z: z}
				if vol.Solid(idx) {
					out = append(out, vol.Position(idx).Sub(half))
					break
				}
			}
		}
	}
	return out
}

// WorldBounds returns the world-space box enclosing the captured volume
// under the current transform.
func (b *Body) WorldBounds() (mgl32.Vec3, mgl32.Vec3) {
	d := b.Volume.Dims()
	s := b.Volume.Spacing()
	ext := mgl32.Vec3{float32(d.X-1) * s, float32(d.Y-1) * s, float32(d.Z-1) * s}
	var lo, hi mgl32.Vec3
	for c := 0; c < 8; c++ {
		local := mgl32.Vec3{
			ext[0] * float32(c&1),
			ext[1] * float32((c>>1)&1),
			ext[2] * float32((c>>2)&1),
		}
		w := mgl32.TransformCoordinate(local, b.Transform)
		if c == 0 {
			lo, hi = w, w
			continue
		}
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], w[a])
			hi[a] = max(hi[a], w[a])
		}
	}
	return lo, hi
}

// Contains maps a world point into the captured volume and reports the local
// node it lands on when that node holds terrain.
func (b *Body) Contains(p mgl32.Vec3) (lattice.Index, bool) {
	local := mgl32.TransformCoordinate(p, b.Transform.Inv())
	idx := b.Volume.IndexAt(local)
	if b.Volume.Iso(idx) <= 0 {
		return idx, false
	}
	return idx, true
}

// Occupancy returns the sorted flat lattice offsets covered by any of the
// bodies.
func Occupancy(lat *lattice.Lattice, bodies []*Body) []int {
	set := map[int]struct{}{}
	for _, b := range bodies {
		lo, hi := b.WorldBounds()
		for _, idx := range lat.WorldBox(lo, hi) {
			if _, ok := b.Contains(lat.Position(idx)); !ok {
				continue
			}
			if i, ok := lat.Flat(idx); ok {
				set[i] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
