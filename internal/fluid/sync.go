package fluid

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/lattice"
)

// Load replaces the solver state with the lattice's: nodes holding any
// terrain are obstacles, the rest take the lattice's liquid volume.
// Velocities and settle flags reset; debris occupancy is kept.
func (s *Solver) Load(l *lattice.Lattice) {
	for c := range s.obstacle {
		s.vel[c] = mgl32.Vec3{}
		s.settled[c] = false
		i, ok := s.flatOfCell(c)
		if !ok {
			s.obstacle[c] = true
			s.vol[c] = 0
			continue
		}
		if l.IsoAt(i) > 0 || s.occupied[c] {
			s.obstacle[c] = true
			s.vol[c] = 0
			continue
		}
		s.obstacle[c] = false
		s.vol[c] = l.LiquidAt(i)
	}
}

// Sync brings the cells of the changed nodes, and every cell whose debris
// occupancy changed, in line with the lattice. occupied lists the lattice
// flat offsets currently covered by debris. Liquid in a cell that becomes an
// obstacle is pushed into its open neighbours.
func (s *Solver) Sync(l *lattice.Lattice, changed []lattice.Index, occupied []int) {
	next := make(map[int]bool, len(occupied))
	for _, i := range occupied {
		if i >= 0 && i < s.dims.Len() {
			next[s.cellOfFlat(i)] = true
		}
	}
	touched := map[int]bool{}
	for c, was := range s.occupied {
		if was && !next[c] {
			s.occupied[c] = false
			touched[c] = false
		}
	}
	for c := range next {
		if !s.occupied[c] {
			s.occupied[c] = true
			touched[c] = false
		}
	}
	for _, idx := range changed {
		if c, ok := s.cell(idx); ok {
			touched[c] = true
		}
	}
	order := make([]int, 0, len(touched))
	for c := range touched {
		order = append(order, c)
	}
	// Edited cells load from the lattice first so later spills into them
	// are not overwritten.
	sort.Slice(order, func(a, b int) bool {
		if touched[order[a]] != touched[order[b]] {
			return touched[order[a]]
		}
		return order[a] < order[b]
	})
	for _, c := range order {
		s.refresh(l, c, touched[c])
	}
	for c := range touched {
		s.settled[c] = false
		for d := 0; d < 6; d++ {
			s.settled[c+s.stride[d]] = false
		}
	}
}

// refresh recomputes one cell. Cells reopened only because debris moved away
// start dry; edited cells take the lattice's liquid.
func (s *Solver) refresh(l *lattice.Lattice, c int, edited bool) {
	i, ok := s.flatOfCell(c)
	if !ok {
		return
	}
	if l.IsoAt(i) > 0 || s.occupied[c] {
		if !s.obstacle[c] && s.vol[c] > 0 {
			s.spill(c, s.vol[c])
		}
		s.obstacle[c] = true
		s.vol[c] = 0
		s.vel[c] = mgl32.Vec3{}
		return
	}
	if s.obstacle[c] {
		s.obstacle[c] = false
		s.vel[c] = mgl32.Vec3{}
		s.vol[c] = 0
	}
	if edited {
		s.vol[c] = l.LiquidAt(i)
	}
}

// spill spreads amount over the open neighbours of c, evenly while room
// remains.
func (s *Solver) spill(c int, amount float32) {
	var open []int
	for d := 0; d < 6; d++ {
		nb := c + s.stride[d]
		if !s.obstacle[nb] && s.vol[nb] < s.capacity {
			open = append(open, nb)
		}
	}
	left := amount
	for left > snap && len(open) > 0 {
		share := left / float32(len(open))
		next := open[:0]
		for _, nb := range open {
			add := min(share, s.capacity-s.vol[nb])
			s.vol[nb] += add
			left -= add
			if s.vol[nb] < s.capacity {
				next = append(next, nb)
			}
		}
		if len(next) == len(open) {
			break
		}
		open = next
	}
	if left > snap {
		s.log.Warn("liquid lost to obstacle", "cell", c, "amount", left)
	}
}

// WriteBack copies the solver's volumes into the lattice so gameplay code
// reads authoritative liquid.
func (s *Solver) WriteBack(l *lattice.Lattice) {
	for i := 0; i < s.dims.Len(); i++ {
		c := s.cellOfFlat(i)
		if l.IsoAt(i) > 0 {
			continue
		}
		l.SetLiquidAt(i, s.vol[c])
	}
}
