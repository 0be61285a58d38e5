package lattice

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box returns the in-grid nodes of the inclusive box [lo, hi] in flattened
// order.
func (l *Lattice) Box(lo, hi Index) []Index {
	lo, hi = l.clip(lo, hi)
	if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
		return nil
	}
	out := make([]Index, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1)*(hi.Z-lo.Z+1))
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				out = append(out, Index{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Sphere returns the in-grid nodes whose position lies within radius of
// center.
func (l *Lattice) Sphere(center mgl32.Vec3, radius float32) []Index {
	if radius < 0 {
		return nil
	}
	r := mgl32.Vec3{radius, radius, radius}
	lo := l.floorIndex(center.Sub(r))
	hi := l.ceilIndex(center.Add(r))
	var out []Index
	r2 := radius * radius
	for _, idx := range l.Box(lo, hi) {
		d := l.Position(idx).Sub(center)
		if d.Dot(d) <= r2 {
			out = append(out, idx)
		}
	}
	return out
}

// Column returns every node of the vertical line at (x, z).
func (l *Lattice) Column(x, z int) []Index {
	return l.Box(Index{X: x, Y: 0, Z: z}, Index{X: x, Y: l.dims.Y - 1, Z: z})
}

// ColumnNodes returns the nodes owned by column c, boundary rows included.
func (l *Lattice) ColumnNodes(c ColumnID) []Index {
	lo, hi := l.ColumnRange(c)
	return l.Box(lo, hi)
}

// WorldBox returns the in-grid nodes whose positions fall inside the world
// axis-aligned box [lo, hi].
func (l *Lattice) WorldBox(lo, hi mgl32.Vec3) []Index {
	return l.Box(l.ceilIndex(lo), l.floorIndex(hi))
}

func (l *Lattice) clip(lo, hi Index) (Index, Index) {
	lo.X, lo.Y, lo.Z = max(lo.X, 0), max(lo.Y, 0), max(lo.Z, 0)
	hi.X, hi.Y, hi.Z = min(hi.X, l.dims.X-1), min(hi.Y, l.dims.Y-1), min(hi.Z, l.dims.Z-1)
	return lo, hi
}

func (l *Lattice) floorIndex(p mgl32.Vec3) Index {
	rel := p.Sub(l.cfg.Origin).Mul(1 / l.cfg.Spacing)
	return Index{
		X: int(math.Floor(float64(rel.X()) + 1e-4)),
		Y: int(math.Floor(float64(rel.Y()) + 1e-4)),
		Z: int(math.Floor(float64(rel.Z()) + 1e-4)),
	}
}

func (l *Lattice) ceilIndex(p mgl32.Vec3) Index {
	rel := p.Sub(l.cfg.Origin).Mul(1 / l.cfg.Spacing)
	return Index{
		X: int(math.Ceil(float64(rel.X()) - 1e-4)),
		Y: int(math.Ceil(float64(rel.Y()) - 1e-4)),
		Z: int(math.Ceil(float64(rel.Z()) - 1e-4)),
	}
}
