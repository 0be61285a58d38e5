package lattice

import "rubble/internal/material"

// Index addresses a node by integer grid coordinates. Any value is valid;
// coordinates outside the grid resolve to ghost nodes.
type Index struct {
	X, Y, Z int
}

// Add offsets the index.
func (i Index) Add(dx, dy, dz int) Index {
	return Index{X: i.X + dx, Y: i.Y + dy, Z: i.Z + dz}
}

// Less orders indices lexicographically by x, then y, then z.
func (i Index) Less(o Index) bool {
	if i.X != o.X {
		return i.X < o.X
	}
	if i.Y != o.Y {
		return i.Y < o.Y
	}
	return i.Z < o.Z
}

// Contribution is one material's share of a node.
type Contribution struct {
	Material material.ID
	Weight   float32
}

// State classifies a node at lookup time.
type State uint8

const (
	// Ghost nodes lie outside the grid and always read as empty.
	Ghost State = iota
	// Empty nodes hold neither terrain above the cutoff nor liquid.
	Empty
	// Solid nodes have iso at or above the cutoff.
	Solid
	// Liquid nodes hold liquid and no terrain.
	Liquid
)

func (s State) String() string {
	switch s {
	case Ghost:
		return "ghost"
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case Liquid:
		return "liquid"
	default:
		return "unknown"
	}
}

// cell is the stored per-node record.
type cell struct {
	iso    float32
	liquid float32
	mats   [MaxContributions]Contribution
	n      uint8
}

func (c *cell) clearMaterials() {
	c.mats = [MaxContributions]Contribution{}
	c.n = 0
}

// paint adds weight to mat's contribution. It reports false when the
// contribution list is full and mat is not already present.
func (c *cell) paint(mat material.ID, weight float32) bool {
	if mat == material.None {
		return true
	}
	for i := 0; i < int(c.n); i++ {
		if c.mats[i].Material != mat {
			continue
		}
		c.mats[i].Weight = clamp01(c.mats[i].Weight + weight)
		if c.mats[i].Weight <= Epsilon {
			copy(c.mats[i:], c.mats[i+1:c.n])
			c.n--
			c.mats[c.n] = Contribution{}
		}
		return true
	}
	w := clamp01(weight)
	if w <= Epsilon {
		return true
	}
	if int(c.n) >= MaxContributions {
		return false
	}
	c.mats[c.n] = Contribution{Material: mat, Weight: w}
	c.n++
	return true
}

func (c *cell) dominant() material.ID {
	best := material.None
	var bestW float32
	for i := 0; i < int(c.n); i++ {
		if c.mats[i].Weight > bestW {
			best, bestW = c.mats[i].Material, c.mats[i].Weight
		}
	}
	return best
}

// Node is a read-only view of a lattice node.
type Node struct {
	Index    Index
	Iso      float32
	Liquid   float32
	Grounded bool
	State    State

	mats [MaxContributions]Contribution
	n    uint8
}

// Materials returns the node's contributions in insertion order.
func (n Node) Materials() []Contribution {
	out := make([]Contribution, n.n)
	copy(out, n.mats[:n.n])
	return out
}

// Material returns the highest-weighted contribution, or material.None.
func (n Node) Material() material.ID {
	c := cell{mats: n.mats, n: n.n}
	return c.dominant()
}

func (n Node) IsGhost() bool   { return n.State == Ghost }
func (n Node) IsSolid() bool   { return n.State == Solid }
func (n Node) IsLiquid() bool  { return n.State == Liquid }
func (n Node) IsTerrain() bool { return n.Iso > 0 }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
