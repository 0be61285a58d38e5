package fluid

// transfer moves liquid between cells along the velocity field. Each cell
// decides its six outflows from the read buffers alone; a second pass
// gathers inflows. Outflow toward a neighbour never exceeds a sixth of that
// neighbour's free space and total outflow never exceeds the cell's volume,
// so the sum of volumes is preserved up to the dry-cell snap.
func (s *Solver) transfer(dt float32) {
	scale := dt / s.h
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			o := s.out[6*c : 6*c+6]
			for d := range o {
				o[d] = 0
			}
			if !s.wet(c) || s.settled[c] {
				continue
			}
			s.outflows(c, scale, o)
		}
	})
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if s.obstacle[c] {
				s.volNext[c] = 0
				s.inflow[c], s.outflow[c], s.delta[c] = 0, 0, 0
				continue
			}
			var in, out float32
			for d := 0; d < 6; d++ {
				nb := c + s.stride[d]
				in += s.out[6*nb+(d^1)]
				out += s.out[6*c+d]
			}
			v := s.vol[c] - out + in
			if v < snap {
				v = 0
			}
			if v > s.capacity {
				v = s.capacity
			}
			s.volNext[c] = v
			s.inflow[c], s.outflow[c] = in, out
			s.delta[c] = v - s.vol[c]
		}
	})
	s.vol, s.volNext = s.volNext, s.vol
}

// outflows fills o with the volume c sends in each direction this step.
// Blocked directions (solid, full, or sideways while the cell below is open
// and holds less liquid) hand their share to the open directions other than
// up, and the six results are scaled down to fit the cell's volume.
func (s *Solver) outflows(c int, scale float32, o []float32) {
	vol := s.vol[c]
	v := s.vel[c]
	below := c + s.stride[dirDown]
	falling := !s.obstacle[below] && !s.full(below) && s.vol[below] < vol

	var blocked [6]bool
	var cand [6]float32
	for d := 0; d < 6; d++ {
		nb := c + s.stride[d]
		blocked[d] = s.obstacle[nb] || s.full(nb) || (falling && horizontal(d))
		speed := v.Dot(dirs[d])
		if speed <= 0 {
			continue
		}
		cand[d] = min(speed*scale*vol, vol)
	}

	var spill float32
	open := 0
	for d := 0; d < 6; d++ {
		if blocked[d] {
			spill += cand[d]
			cand[d] = 0
			continue
		}
		if d != dirUp {
			open++
		}
	}
	if spill > 0 && open > 0 {
		share := spill / float32(open)
		for d := 0; d < 6; d++ {
			if !blocked[d] && d != dirUp {
				cand[d] += share
			}
		}
	}

	var sum float32
	for d := 0; d < 6; d++ {
		if blocked[d] {
			continue
		}
		nb := c + s.stride[d]
		room := (s.capacity - s.vol[nb]) / 6
		if room < 0 {
			room = 0
		}
		cand[d] = min(cand[d], room)
		sum += cand[d]
	}
	if sum > vol {
		k := vol / sum
		for d := range cand {
			cand[d] *= k
		}
	}
	copy(o, cand[:])
}

// settle marks cells whose flow has died out. A cell settles when nothing
// moved through it this step, it is dry or full, none of its neighbours
// changed, and, when full, it has no open non-full neighbour except above.
func (s *Solver) settle() {
	eps := s.p.SettleEpsilon
	s.parallel(func(lo, hi int) {
		for c := lo; c < hi; c++ {
			if s.obstacle[c] {
				s.settledNext[c] = false
				continue
			}
			v := s.vol[c]
			dry := v <= snap
			ok := s.inflow[c] <= eps && s.outflow[c] <= eps && (dry || s.full(c))
			for d := 0; ok && d < 6; d++ {
				nb := c + s.stride[d]
				if s.delta[nb] > eps || s.delta[nb] < -eps {
					ok = false
				}
				if !dry && d != dirUp && !s.obstacle[nb] && !s.full(nb) {
					ok = false
				}
			}
			s.settledNext[c] = ok
		}
	})
	s.settled, s.settledNext = s.settledNext, s.settled
}
