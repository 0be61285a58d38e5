// Package mc triangulates iso-value samples with marching cubes.
package mc

import (
	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/lattice"
	"rubble/internal/material"
)

// Epsilon guards the interpolation denominator.
const Epsilon = 1e-5

// Corner is one sample of a cube cell.
type Corner struct {
	Pos      mgl32.Vec3
	Iso      float32
	Material material.ID
}

// Vertex is a surface point with the material of the solid corner it was
// interpolated from.
type Vertex struct {
	Pos      mgl32.Vec3
	Material material.ID
}

// Triangle is a surface facet wound counter-clockwise when seen from the
// empty side.
type Triangle struct {
	V        [3]Vertex
	Material material.ID
}

// CubeIndex returns the 8-bit mask of corners at or above cutoff.
func CubeIndex(c *[8]Corner, cutoff float32) uint8 {
	var idx uint8
	for i := range c {
		if c[i].Iso >= cutoff {
			idx |= 1 << i
		}
	}
	return idx
}

// Polygonise appends the 0 to 5 triangles of one cube cell to out.
func Polygonise(c *[8]Corner, cutoff float32, out []Triangle) []Triangle {
	ci := CubeIndex(c, cutoff)
	edges := edgeTable[ci]
	if edges == 0 {
		return out
	}
	var verts [12]Vertex
	for e := 0; e < 12; e++ {
		if edges&(1<<e) == 0 {
			continue
		}
		a, b := &c[edgeCorners[e][0]], &c[edgeCorners[e][1]]
		verts[e] = interpolate(a, b, cutoff)
	}
	row := &triTable[ci]
	for k := 0; row[k] >= 0; k += 3 {
		v0, v1, v2 := verts[row[k]], verts[row[k+2]], verts[row[k+1]]
		out = append(out, Triangle{
			V:        [3]Vertex{v0, v1, v2},
			Material: majority(v0.Material, v1.Material, v2.Material),
		})
	}
	return out
}

// interpolate finds the cutoff crossing on edge a-b. The corners are put in
// lexicographic position order first so the two cells sharing an edge always
// compute the same point.
func interpolate(a, b *Corner, cutoff float32) Vertex {
	if less(b.Pos, a.Pos) {
		a, b = b, a
	}
	mat := a.Material
	if b.Iso >= cutoff && a.Iso < cutoff {
		mat = b.Material
	}
	diff := b.Iso - a.Iso
	if diff < Epsilon && diff > -Epsilon {
		return Vertex{Pos: a.Pos, Material: mat}
	}
	t := (cutoff - a.Iso) / diff
	return Vertex{Pos: a.Pos.Add(b.Pos.Sub(a.Pos).Mul(t)), Material: mat}
}

func less(p, q mgl32.Vec3) bool {
	if p[0] != q[0] {
		return p[0] < q[0]
	}
	if p[1] != q[1] {
		return p[1] < q[1]
	}
	return p[2] < q[2]
}

func majority(a, b, c material.ID) material.ID {
	if a == b || a == c {
		return a
	}
	if b == c {
		return b
	}
	return a
}

// Corners samples the cube cell whose lowest corner is node (x, y, z).
// Ghost nodes read as empty.
func Corners(l *lattice.Lattice, x, y, z int) [8]Corner {
	var c [8]Corner
	for i, off := range cornerOffsets {
		idx := lattice.Index{X: x + off[0], Y: y + off[1], Z: z + off[2]}
		c[i] = Corner{Pos: l.Position(idx), Iso: l.Iso(idx), Material: l.MaterialAt(idx)}
	}
	return c
}

// Cell polygonises the lattice cell whose lowest corner is (x, y, z).
func Cell(l *lattice.Lattice, x, y, z int, out []Triangle) []Triangle {
	c := Corners(l, x, y, z)
	return Polygonise(&c, l.Cutoff(), out)
}
