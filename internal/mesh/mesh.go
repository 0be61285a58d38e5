// Package mesh turns marching-cubes triangles into welded, material-grouped
// meshes and keeps per-column terrain meshes in step with lattice edits.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/material"
)

// Group is a run of indices sharing one material.
type Group struct {
	Material material.ID
	Start    int
	Count    int
}

// Mesh is an indexed triangle mesh. Indices within a group index into the
// shared vertex arrays.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Materials []material.ID
	Indices   []uint32
	Groups    []Group
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool { return m == nil || len(m.Indices) == 0 }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Volume returns the signed enclosed volume using the divergence theorem.
// Outward-wound closed meshes give a positive result.
func (m *Mesh) Volume() float32 {
	if m.Empty() {
		return 0
	}
	var sum float64
	for k := 0; k+2 < len(m.Indices); k += 3 {
		a := m.Positions[m.Indices[k]]
		b := m.Positions[m.Indices[k+1]]
		c := m.Positions[m.Indices[k+2]]
		sum += float64(a.Dot(b.Cross(c)))
	}
	return float32(sum / 6)
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if m.VertexCount() == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], p[a])
			hi[a] = max(hi[a], p[a])
		}
	}
	return lo, hi
}

// Translate returns a copy of m with every vertex shifted by d.
func (m *Mesh) Translate(d mgl32.Vec3) *Mesh {
	if m == nil {
		return nil
	}
	out := &Mesh{
		Positions: make([]mgl32.Vec3, len(m.Positions)),
		Normals:   append([]mgl32.Vec3(nil), m.Normals...),
		Materials: append([]material.ID(nil), m.Materials...),
		Indices:   append([]uint32(nil), m.Indices...),
		Groups:    append([]Group(nil), m.Groups...),
	}
	for i, p := range m.Positions {
		out.Positions[i] = p.Add(d)
	}
	return out
}
