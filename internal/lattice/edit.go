package lattice

import "rubble/internal/material"

// AddIso adds delta to the iso-value of every listed node, clamped to [0,1].
// A positive delta paints mat with the same weight. Terrain and liquid are
// mutually exclusive: any node left with iso > 0 drops its liquid, and a node
// whose iso reaches zero drops its materials. Ghost indices are ignored.
func (l *Lattice) AddIso(delta float32, mat material.ID, nodes ...Index) {
	if delta == 0 {
		return
	}
	for _, idx := range nodes {
		i, ok := l.Flat(idx)
		if !ok {
			continue
		}
		c := &l.cells[i]
		before := *c
		c.iso = clamp01(c.iso + delta)
		if c.iso <= Epsilon {
			c.iso = 0
		}
		if delta > 0 && mat != material.None {
			if !c.paint(mat, delta) {
				l.log.Warn("material cap reached", "node", idx, "material", mat, "cap", MaxContributions)
			}
		}
		l.settle(i, idx)
		if *c != before {
			l.markChanged(i)
		}
	}
}

// AddLiquid adds delta liquid to every listed node, clamped to
// [0, NodeVolume]. A node that ends up holding liquid loses its terrain.
func (l *Lattice) AddLiquid(delta float32, nodes ...Index) {
	if delta == 0 {
		return
	}
	for _, idx := range nodes {
		i, ok := l.Flat(idx)
		if !ok {
			continue
		}
		c := &l.cells[i]
		prevLiquid := c.liquid
		prevIso := c.iso
		c.liquid = clampRange(c.liquid+delta, 0, l.cfg.NodeVolume)
		if c.liquid <= Epsilon {
			c.liquid = 0
		}
		if c.liquid > 0 && c.iso > 0 {
			c.iso = 0
			c.clearMaterials()
		}
		if c.iso != prevIso {
			l.markChanged(i)
		}
		if c.liquid != prevLiquid {
			l.markLiquidChanged(i)
		}
	}
}

// Paint adjusts mat's contribution weight on every listed node. Weights are
// clamped to [0,1] and zero-weight entries are dropped. When a node already
// carries MaxContributions other materials the paint is skipped with a
// warning. Nodes without terrain are skipped.
func (l *Lattice) Paint(mat material.ID, weight float32, nodes ...Index) {
	if mat == material.None || weight == 0 {
		return
	}
	for _, idx := range nodes {
		i, ok := l.Flat(idx)
		if !ok {
			continue
		}
		c := &l.cells[i]
		if c.iso == 0 {
			continue
		}
		before := *c
		if !c.paint(mat, weight) {
			l.log.Warn("material cap reached", "node", idx, "material", mat, "cap", MaxContributions)
			continue
		}
		if *c != before {
			l.markChanged(i)
		}
	}
}

// SetLiquidAt overwrites the liquid volume at flat offset i without touching
// the edit journal. It is the fluid solver's write-back path and refuses
// nodes that hold terrain.
func (l *Lattice) SetLiquidAt(i int, v float32) bool {
	c := &l.cells[i]
	if c.iso > 0 {
		return false
	}
	v = clampRange(v, 0, l.cfg.NodeVolume)
	if v <= Epsilon {
		v = 0
	}
	c.liquid = v
	return true
}

// ClearNode removes terrain and liquid at idx.
func (l *Lattice) ClearNode(idx Index) {
	i, ok := l.Flat(idx)
	if !ok {
		return
	}
	c := &l.cells[i]
	if c.iso != 0 || c.n != 0 {
		l.markChanged(i)
	}
	if c.liquid != 0 {
		l.markLiquidChanged(i)
	}
	*c = cell{}
	l.grounded[i] = false
}

// Restore writes a captured node's iso and materials back at idx. Liquid at
// the destination is discarded when the restored iso is positive; callers
// that must keep it read it first.
func (l *Lattice) Restore(idx Index, n Node) {
	i, ok := l.Flat(idx)
	if !ok {
		return
	}
	c := &l.cells[i]
	before := *c
	c.iso = clamp01(n.Iso)
	c.mats = n.mats
	c.n = n.n
	l.settle(i, idx)
	if *c != before {
		l.markChanged(i)
	}
}

// Snapshot captures the listed nodes keyed by index.
func (l *Lattice) Snapshot(nodes []Index) map[Index]Node {
	out := make(map[Index]Node, len(nodes))
	for _, idx := range nodes {
		out[idx] = l.Node(idx)
	}
	return out
}

// settle enforces terrain/liquid exclusion after an iso change.
func (l *Lattice) settle(i int, idx Index) {
	c := &l.cells[i]
	if c.iso > 0 {
		if c.liquid > 0 {
			c.liquid = 0
			l.markLiquidChanged(i)
		}
		return
	}
	c.clearMaterials()
}

func clampRange(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
