package lattice

import (
	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/material"
)

// Carve removes terrain inside a sphere, strongest at the center and fading
// linearly to zero at the radius. It returns the nodes it touched.
func (l *Lattice) Carve(center mgl32.Vec3, radius, strength float32) []Index {
	if radius <= 0 || strength <= 0 {
		return nil
	}
	nodes := l.Sphere(center, radius)
	touched := nodes[:0:0]
	for _, idx := range nodes {
		f := falloff(l.Position(idx).Sub(center).Len(), radius)
		if f <= 0 || l.Iso(idx) == 0 {
			continue
		}
		l.AddIso(-strength*f, material.None, idx)
		touched = append(touched, idx)
	}
	return touched
}

// Fill makes every node in the inclusive box fully solid with mat.
func (l *Lattice) Fill(lo, hi Index, mat material.ID) []Index {
	nodes := l.Box(lo, hi)
	for _, idx := range nodes {
		need := 1 - l.Iso(idx)
		if need > 0 {
			l.AddIso(need, mat, idx)
		} else {
			l.Paint(mat, 1, idx)
		}
	}
	return nodes
}

// Pour distributes volume liquid over the non-terrain nodes of a sphere,
// weighted by distance from the center. It returns the amount actually
// added after clamping to node capacity.
func (l *Lattice) Pour(center mgl32.Vec3, radius, volume float32) float32 {
	if radius <= 0 || volume <= 0 {
		return 0
	}
	var targets []Index
	var weights []float32
	var total float32
	for _, idx := range l.Sphere(center, radius) {
		if l.Iso(idx) > 0 {
			continue
		}
		w := falloff(l.Position(idx).Sub(center).Len(), radius)
		if w <= 0 {
			w = Epsilon
		}
		targets = append(targets, idx)
		weights = append(weights, w)
		total += w
	}
	if total == 0 {
		return 0
	}
	var added float32
	for k, idx := range targets {
		i, _ := l.Flat(idx)
		before := l.cells[i].liquid
		l.AddLiquid(volume*weights[k]/total, idx)
		added += l.cells[i].liquid - before
	}
	return added
}

func falloff(d, radius float32) float32 {
	if d >= radius {
		return 0
	}
	return 1 - d/radius
}
