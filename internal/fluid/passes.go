package fluid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// advect moves velocity along itself by tracing each cell back through the
// field and sampling there.
func (s *Solver) advect(dt float32) {
	scale := dt / s.h
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if s.obstacle[c] {
				s.velNext[c] = mgl32.Vec3{}
				continue
			}
			x, y, z := s.pad.Coords(c)
			back := mgl32.Vec3{float32(x), float32(y), float32(z)}.Sub(s.vel[c].Mul(scale))
			v := s.sample(back)
			if !finite(v[0]) || !finite(v[1]) || !finite(v[2]) {
				v = mgl32.Vec3{}
			}
			s.velNext[c] = v
		}
	})
	s.vel, s.velNext = s.velNext, s.vel
}

// sample trilinearly interpolates velocity at a padded-grid position clamped
// to the interior.
func (s *Solver) sample(p mgl32.Vec3) mgl32.Vec3 {
	ext := [3]int{s.pad.X, s.pad.Y, s.pad.Z}
	var i0, i1 [3]int
	var f [3]float32
	for a := 0; a < 3; a++ {
		hi := float32(ext[a] - 2)
		v := p[a]
		if v < 1 {
			v = 1
		}
		if v > hi {
			v = hi
		}
		fl := float32(math.Floor(float64(v)))
		i0[a] = int(fl)
		i1[a] = min(i0[a]+1, ext[a]-2)
		f[a] = v - fl
	}
	at := func(x, y, z int) mgl32.Vec3 { return s.vel[s.pad.Index(x, y, z)] }
	lerp := func(a, b mgl32.Vec3, t float32) mgl32.Vec3 { return a.Add(b.Sub(a).Mul(t)) }
	c00 := lerp(at(i0[0], i0[1], i0[2]), at(i1[0], i0[1], i0[2]), f[0])
	c10 := lerp(at(i0[0], i1[1], i0[2]), at(i1[0], i1[1], i0[2]), f[0])
	c01 := lerp(at(i0[0], i0[1], i1[2]), at(i1[0], i0[1], i1[2]), f[0])
	c11 := lerp(at(i0[0], i1[1], i1[2]), at(i1[0], i1[1], i1[2]), f[0])
	return lerp(lerp(c00, c10, f[1]), lerp(c01, c11, f[1]), f[2])
}

// forces applies gravity, the hydrostatic head of the column above, a
// sideways nudge toward lower open neighbours and horizontal friction.
// Dry cells carry no velocity.
func (s *Solver) forces(dt float32) {
	damp := 1 - s.p.Friction*dt
	if damp < 0 {
		damp = 0
	}
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if !s.wet(c) {
				s.velNext[c] = mgl32.Vec3{}
				continue
			}
			v := s.vel[c]
			v[1] += s.p.Gravity * dt
			if v[1] < -s.p.MaxFallSpeed {
				v[1] = -s.p.MaxFallSpeed
			}
			head := s.head(c)
			for d := 0; d < 6; d++ {
				if !horizontal(d) {
					continue
				}
				nb := c + s.stride[d]
				if s.obstacle[nb] {
					continue
				}
				diff := s.vol[c] - s.vol[nb]
				if diff <= s.p.SettleEpsilon {
					continue
				}
				push := (s.p.Nudge + s.p.HydroScale*head) * diff * dt
				v = v.Add(dirs[d].Mul(push))
			}
			v[0] *= damp
			v[2] *= damp
			s.velNext[c] = v
		}
	})
	s.vel, s.velNext = s.velNext, s.vel
}

// head sums the liquid stacked directly above c, stopping at the first
// obstacle or dry cell.
func (s *Solver) head(c int) float32 {
	var sum float32
	up := s.stride[dirUp]
	for k, nb := 0, c+up; k < s.p.HydroLookahead; k, nb = k+1, nb+up {
		if s.obstacle[nb] || s.vol[nb] <= snap {
			break
		}
		sum += s.vol[nb]
	}
	return sum
}

// vorticity adds confinement force N x curl, where N is the normalized
// gradient of the curl magnitude.
func (s *Solver) vorticity(dt float32) {
	inv2h := 1 / (2 * s.h)
	sx, sy, sz := s.stride[0], s.stride[2], s.stride[4]
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if !s.wet(c) {
				s.curl[c] = mgl32.Vec3{}
				s.curlMag[c] = 0
				continue
			}
			dvzdy := (s.vel[c+sy][2] - s.vel[c-sy][2]) * inv2h
			dvydz := (s.vel[c+sz][1] - s.vel[c-sz][1]) * inv2h
			dvxdz := (s.vel[c+sz][0] - s.vel[c-sz][0]) * inv2h
			dvzdx := (s.vel[c+sx][2] - s.vel[c-sx][2]) * inv2h
			dvydx := (s.vel[c+sx][1] - s.vel[c-sx][1]) * inv2h
			dvxdy := (s.vel[c+sy][0] - s.vel[c-sy][0]) * inv2h
			w := mgl32.Vec3{dvzdy - dvydz, dvxdz - dvzdx, dvydx - dvxdy}
			s.curl[c] = w
			s.curlMag[c] = w.Len()
		}
	})
	scale := s.p.Vorticity * s.h * dt
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if !s.wet(c) {
				s.velNext[c] = mgl32.Vec3{}
				continue
			}
			eta := mgl32.Vec3{
				(s.curlMag[c+sx] - s.curlMag[c-sx]) * inv2h,
				(s.curlMag[c+sy] - s.curlMag[c-sy]) * inv2h,
				(s.curlMag[c+sz] - s.curlMag[c-sz]) * inv2h,
			}
			l := eta.Len()
			if l < 1e-6 {
				s.velNext[c] = s.vel[c]
				continue
			}
			n := eta.Mul(1 / l)
			s.velNext[c] = s.vel[c].Add(n.Cross(s.curl[c]).Mul(scale))
		}
	})
	s.vel, s.velNext = s.velNext, s.vel
}

// pressure solves the discrete Poisson equation for the divergence of the
// velocity field with Jacobi iterations. Obstacles contribute zero
// velocity to the divergence and a zero-gradient boundary to the solve;
// dry cells hold zero pressure.
func (s *Solver) pressure() {
	inv2h := 1 / (2 * s.h)
	h2 := s.h * s.h
	sx, sy, sz := s.stride[0], s.stride[2], s.stride[4]
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			s.pres[c] = 0
			s.presNext[c] = 0
			if !s.wet(c) {
				s.div[c] = 0
				continue
			}
			s.div[c] = ((s.vel[c+sx][0] - s.vel[c-sx][0]) +
				(s.vel[c+sy][1] - s.vel[c-sy][1]) +
				(s.vel[c+sz][2] - s.vel[c-sz][2])) * inv2h
		}
	})
	for it := 0; it < s.p.Iterations; it++ {
		s.parallel(func(lo, hi int) {
			for c := lo; c < hi; c++ {
				if !s.wet(c) {
					s.presNext[c] = 0
					continue
				}
				var sum float32
				n := 0
				for d := 0; d < 6; d++ {
					nb := c + s.stride[d]
					if s.obstacle[nb] {
						continue
					}
					sum += s.pres[nb]
					n++
				}
				if n == 0 {
					s.presNext[c] = 0
					continue
				}
				s.presNext[c] = (sum - h2*s.div[c]) / float32(n)
			}
		})
		s.pres, s.presNext = s.presNext, s.pres
	}
}

// project subtracts the pressure gradient. Faces toward obstacles or
// settled wet cells use the cell's own pressure so nothing is pushed
// through them, and velocity into an obstacle is cut.
func (s *Solver) project() {
	inv2h := 1 / (2 * s.h)
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if !s.wet(c) {
				s.velNext[c] = mgl32.Vec3{}
				continue
			}
			v := s.vel[c]
			for a := 0; a < 3; a++ {
				plus, minus := c+s.stride[2*a], c+s.stride[2*a+1]
				pp, pm := s.pres[plus], s.pres[minus]
				if s.masked(plus) {
					pp = s.pres[c]
				}
				if s.masked(minus) {
					pm = s.pres[c]
				}
				v[a] -= (pp - pm) * inv2h
				if s.obstacle[plus] && v[a] > 0 {
					v[a] = 0
				}
				if s.obstacle[minus] && v[a] < 0 {
					v[a] = 0
				}
			}
			s.velNext[c] = v
		}
	})
	s.vel, s.velNext = s.velNext, s.vel
}

func (s *Solver) masked(c int) bool {
	return s.obstacle[c] || (s.settled[c] && s.vol[c] > snap)
}
