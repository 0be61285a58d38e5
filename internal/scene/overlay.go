package scene

import (
	"image"

	"rubble/internal/lattice"
)

// FlowField returns the in-plane liquid velocity of the slice, laid out like
// Cells with y pointing up.
func (s *Scene) FlowField() (int, int, []float32, []float32) {
	lat := s.eng.Lattice()
	d := lat.Dims()
	vx := make([]float32, d.X*d.Y)
	vy := make([]float32, d.X*d.Y)
	sol := s.eng.Solver()
	for y := 0; y < d.Y; y++ {
		row := (d.Y - 1 - y) * d.X
		for x := 0; x < d.X; x++ {
			idx := lattice.Index{X: x, Y: y, Z: s.slice}
			if sol.Volume(idx) <= lattice.Epsilon {
				continue
			}
			v := sol.Velocity(idx)
			vx[row+x], vy[row+x] = v.X(), v.Y()
		}
	}
	return d.X, d.Y, vx, vy
}

// UngroundedMask marks solid nodes of the slice that nothing connects to
// the floor, such as islands too small to become debris.
func (s *Scene) UngroundedMask() []float32 {
	lat := s.eng.Lattice()
	d := lat.Dims()
	mask := make([]float32, d.X*d.Y)
	for y := 0; y < d.Y; y++ {
		row := (d.Y - 1 - y) * d.X
		for x := 0; x < d.X; x++ {
			i := d.Index(x, y, s.slice)
			if lat.SolidAt(i) && !lat.GroundedAt(i) {
				mask[row+x] = 1
			}
		}
	}
	return mask
}

// DebrisBoxes returns the cross-section cell rectangles of debris whose
// bounds cross the slice.
func (s *Scene) DebrisBoxes() []image.Rectangle {
	lat := s.eng.Lattice()
	d := lat.Dims()
	z := lat.Position(lattice.Index{Z: s.slice}).Z()
	var out []image.Rectangle
	for _, b := range s.eng.Bodies() {
		lo, hi := b.WorldBounds()
		if z < lo.Z() || z > hi.Z() {
			continue
		}
		a, c := lat.IndexAt(lo), lat.IndexAt(hi)
		r := image.Rect(a.X, d.Y-1-c.Y, c.X+1, d.Y-a.Y)
		out = append(out, r.Intersect(image.Rect(0, 0, d.X, d.Y)))
	}
	return out
}
