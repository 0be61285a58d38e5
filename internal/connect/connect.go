// Package connect decides which solid terrain is held up by the ground and
// extracts the islands that are not.
package connect

import (
	"log/slog"
	"sort"

	"rubble/internal/core"
	"rubble/internal/lattice"
)

// Island is a maximal 6-connected set of ungrounded solid nodes, listed in
// flattened order.
type Island struct {
	Nodes []lattice.Index
}

// Len returns the number of nodes.
func (i Island) Len() int { return len(i.Nodes) }

// Bounds returns the inclusive index bounding box.
func (i Island) Bounds() (lattice.Index, lattice.Index) {
	if len(i.Nodes) == 0 {
		return lattice.Index{}, lattice.Index{}
	}
	lo, hi := i.Nodes[0], i.Nodes[0]
	for _, n := range i.Nodes[1:] {
		lo = lattice.Index{X: min(lo.X, n.X), Y: min(lo.Y, n.Y), Z: min(lo.Z, n.Z)}
		hi = lattice.Index{X: max(hi.X, n.X), Y: max(hi.Y, n.Y), Z: max(hi.Z, n.Z)}
	}
	return lo, hi
}

// Traverser maintains the lattice's grounded flags. Scratch buffers are
// stamped with an epoch so each pass starts clean without reallocating.
type Traverser struct {
	lat *lattice.Lattice
	log *slog.Logger

	epoch    uint32
	seen     []uint32
	verified []uint32
	owner    []uint32
	queue    []int
	stack    []int
}

// New returns a traverser bound to lat.
func New(lat *lattice.Lattice, log *slog.Logger) *Traverser {
	n := lat.Dims().Len()
	return &Traverser{
		lat:      lat,
		log:      core.Logger(log),
		seen:     make([]uint32, n),
		verified: make([]uint32, n),
		owner:    make([]uint32, n),
	}
}

func (t *Traverser) next() {
	t.epoch++
	if t.epoch == 0 {
		for i := range t.seen {
			t.seen[i], t.verified[i], t.owner[i] = 0, 0, 0
		}
		t.epoch = 1
	}
}

// Full recomputes grounding over the whole lattice: a breadth-first flood
// from every solid node at y = 0. It returns every island.
func (t *Traverser) Full() ([]Island, error) {
	t.next()
	d := t.lat.Dims()
	t.queue = t.queue[:0]
	for i := 0; i < d.Len(); i++ {
		t.lat.SetGroundedAt(i, false)
	}
	for z := 0; z < d.Z; z++ {
		for x := 0; x < d.X; x++ {
			i := d.Index(x, 0, z)
			if t.lat.SolidAt(i) {
				t.seen[i] = t.epoch
				t.queue = append(t.queue, i)
			}
		}
	}
	for head := 0; head < len(t.queue); head++ {
		i := t.queue[head]
		t.lat.SetGroundedAt(i, true)
		t.forSolidNeighbors(i, func(j int) {
			if t.seen[j] != t.epoch {
				t.seen[j] = t.epoch
				t.queue = append(t.queue, j)
			}
		})
	}
	scope := make([]int, 0)
	for i := 0; i < d.Len(); i++ {
		if t.lat.SolidAt(i) && !t.lat.GroundedAt(i) {
			scope = append(scope, i)
		}
	}
	return t.islands(scope)
}

// Update re-evaluates grounding around the changed nodes. Every solid node
// among them or their face neighbours seeds a flood over its component; a
// component that reaches y = 0, or a node already proven grounded in this
// pass, is grounded; past that point the flood only follows nodes still
// flagged ungrounded. A component that exhausts without reaching the ground
// is marked ungrounded node by node and becomes an island, so no stale
// grounded flag survives.
func (t *Traverser) Update(changed []lattice.Index) ([]Island, error) {
	if len(changed) == 0 {
		return nil, nil
	}
	t.next()
	d := t.lat.Dims()
	var scope []int
	consider := func(idx lattice.Index) {
		i, ok := t.lat.Flat(idx)
		if !ok {
			return
		}
		if !t.lat.SolidAt(i) {
			t.lat.SetGroundedAt(i, false)
			return
		}
		if t.seen[i] == t.epoch {
			return
		}
		if comp, grounded := t.flood(i, d); !grounded {
			scope = append(scope, comp...)
		}
	}
	for _, idx := range changed {
		consider(idx)
		for _, off := range core.Neighbors6 {
			consider(idx.Add(off[0], off[1], off[2]))
		}
	}
	return t.islands(scope)
}

// flood explores the solid component containing start. Once the ground is
// found the flood keeps draining, but only into nodes still flagged
// ungrounded, so a reattached island is regrounded in full.
func (t *Traverser) flood(start int, d core.Dims) ([]int, bool) {
	t.queue = append(t.queue[:0], start)
	t.seen[start] = t.epoch
	grounded := false
	for head := 0; head < len(t.queue); head++ {
		i := t.queue[head]
		if _, y, _ := d.Coords(i); y == 0 {
			grounded = true
		}
		t.forSolidNeighbors(i, func(j int) {
			if t.verified[j] == t.epoch {
				grounded = true
				return
			}
			if t.seen[j] == t.epoch || (grounded && t.lat.GroundedAt(j)) {
				return
			}
			t.seen[j] = t.epoch
			t.queue = append(t.queue, j)
		})
	}
	comp := append([]int(nil), t.queue...)
	for _, i := range comp {
		t.lat.SetGroundedAt(i, grounded)
		if grounded {
			t.verified[i] = t.epoch
		}
	}
	return comp, grounded
}

// islands partitions the ungrounded solid nodes of scope with an explicit
// stack flood fill.
func (t *Traverser) islands(scope []int) ([]Island, error) {
	var out []Island
	for _, seed := range scope {
		if t.owner[seed] == t.epoch || t.lat.GroundedAt(seed) || !t.lat.SolidAt(seed) {
			continue
		}
		var nodes []int
		t.owner[seed] = t.epoch
		t.stack = append(t.stack[:0], seed)
		for len(t.stack) > 0 {
			i := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			nodes = append(nodes, i)
			t.forSolidNeighbors(i, func(j int) {
				if t.owner[j] == t.epoch || t.lat.GroundedAt(j) {
					return
				}
				t.owner[j] = t.epoch
				t.stack = append(t.stack, j)
			})
		}
		out = append(out, t.island(nodes))
	}
	if err := t.checkDisjoint(out); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		t.log.Debug("islands found", "count", len(out))
	}
	return out, nil
}

func (t *Traverser) island(flat []int) Island {
	sort.Ints(flat)
	nodes := make([]lattice.Index, len(flat))
	for k, i := range flat {
		nodes[k] = t.lat.Unflat(i)
	}
	return Island{Nodes: nodes}
}

func (t *Traverser) checkDisjoint(islands []Island) error {
	seen := map[lattice.Index]int{}
	for n, is := range islands {
		for _, idx := range is.Nodes {
			if prev, ok := seen[idx]; ok {
				return core.Invariantf(t.log, "node %v in islands %d and %d", idx, prev, n)
			}
			seen[idx] = n
		}
	}
	return nil
}

func (t *Traverser) forSolidNeighbors(i int, fn func(j int)) {
	d := t.lat.Dims()
	x, y, z := d.Coords(i)
	for _, off := range core.Neighbors6 {
		nx, ny, nz := x+off[0], y+off[1], z+off[2]
		if !d.Contains(nx, ny, nz) {
			continue
		}
		j := d.Index(nx, ny, nz)
		if t.lat.SolidAt(j) {
			fn(j)
		}
	}
}
