// Package lattice owns the 3D grid of terrain and liquid samples shared by the
// mesher, the connectivity traverser, the debris factory and the fluid solver.
package lattice

import (
	"log/slog"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/core"
	"rubble/internal/material"
)

// ColumnID names a column of nodes by its column coordinates.
type ColumnID struct {
	X, Z int
}

// Lattice is the single source of truth for terrain and liquid state.
// It is not safe for concurrent mutation.
type Lattice struct {
	cfg  Config
	dims core.Dims
	log  *slog.Logger

	cells    []cell
	grounded []bool

	changed       map[int]struct{}
	liquidChanged map[int]struct{}
}

// New allocates an empty lattice sized from cfg's column layout: each axis
// holds columns*size+1 nodes so neighbouring columns share a boundary row.
func New(cfg Config) *Lattice {
	cfg = cfg.normalized()
	dims := core.NewDims(cfg.ColumnsX*cfg.ColumnSize+1, cfg.Height, cfg.ColumnsZ*cfg.ColumnSize+1)
	return newLattice(dims, cfg)
}

// NewVolume allocates a free-standing lattice of the given node extent, used
// for isolated debris volumes. The column layout collapses to a single column.
func NewVolume(dims core.Dims, cfg Config) *Lattice {
	cfg = cfg.normalized()
	cfg.ColumnsX, cfg.ColumnsZ = 1, 1
	cfg.ColumnSize = max(dims.X, dims.Z) - 1
	cfg.Height = dims.Y
	return newLattice(dims, cfg)
}

func newLattice(dims core.Dims, cfg Config) *Lattice {
	return &Lattice{
		cfg:           cfg,
		dims:          dims,
		log:           core.Logger(cfg.Logger),
		cells:         make([]cell, dims.Len()),
		grounded:      make([]bool, dims.Len()),
		changed:       map[int]struct{}{},
		liquidChanged: map[int]struct{}{},
	}
}

// Config returns the normalized configuration.
func (l *Lattice) Config() Config { return l.cfg }

// Dims returns the node extent.
func (l *Lattice) Dims() core.Dims { return l.dims }

// Cutoff returns the solid threshold.
func (l *Lattice) Cutoff() float32 { return l.cfg.Cutoff }

// NodeVolume returns the liquid capacity of one node.
func (l *Lattice) NodeVolume() float32 { return l.cfg.NodeVolume }

// Spacing returns the world distance between adjacent nodes.
func (l *Lattice) Spacing() float32 { return l.cfg.Spacing }

// Origin returns the world position of node (0,0,0).
func (l *Lattice) Origin() mgl32.Vec3 { return l.cfg.Origin }

// Columns returns the number of columns along x and z.
func (l *Lattice) Columns() (int, int) { return l.cfg.ColumnsX, l.cfg.ColumnsZ }

// ColumnSize returns the number of cells per column edge.
func (l *Lattice) ColumnSize() int { return l.cfg.ColumnSize }

// Logger returns the lattice logger.
func (l *Lattice) Logger() *slog.Logger { return l.log }

// Flat converts idx to a storage offset.
func (l *Lattice) Flat(idx Index) (int, bool) {
	if !l.dims.Contains(idx.X, idx.Y, idx.Z) {
		return 0, false
	}
	return l.dims.Index(idx.X, idx.Y, idx.Z), true
}

// Unflat inverts Flat.
func (l *Lattice) Unflat(i int) Index {
	x, y, z := l.dims.Coords(i)
	return Index{X: x, Y: y, Z: z}
}

// Contains reports whether idx lies inside the grid.
func (l *Lattice) Contains(idx Index) bool {
	return l.dims.Contains(idx.X, idx.Y, idx.Z)
}

// Node returns a view of the node at idx. Out-of-range indices return a ghost
// node with zero iso and no liquid.
func (l *Lattice) Node(idx Index) Node {
	i, ok := l.Flat(idx)
	if !ok {
		return Node{Index: idx, State: Ghost}
	}
	c := &l.cells[i]
	n := Node{
		Index:    idx,
		Iso:      c.iso,
		Liquid:   c.liquid,
		Grounded: l.grounded[i],
		mats:     c.mats,
		n:        c.n,
	}
	switch {
	case c.iso >= l.cfg.Cutoff:
		n.State = Solid
	case c.liquid > 0:
		n.State = Liquid
	default:
		n.State = Empty
	}
	return n
}

// Iso returns the iso-value at idx, zero for ghosts.
func (l *Lattice) Iso(idx Index) float32 {
	if i, ok := l.Flat(idx); ok {
		return l.cells[i].iso
	}
	return 0
}

// IsoAt returns the iso-value at a flat offset.
func (l *Lattice) IsoAt(i int) float32 { return l.cells[i].iso }

// LiquidAt returns the liquid volume at a flat offset.
func (l *Lattice) LiquidAt(i int) float32 { return l.cells[i].liquid }

// MaterialAt returns the dominant material at idx, or material.None.
func (l *Lattice) MaterialAt(idx Index) material.ID {
	if i, ok := l.Flat(idx); ok {
		return l.cells[i].dominant()
	}
	return material.None
}

// Solid reports whether the node at idx is solid. Ghosts are never solid.
func (l *Lattice) Solid(idx Index) bool {
	if i, ok := l.Flat(idx); ok {
		return l.cells[i].iso >= l.cfg.Cutoff
	}
	return false
}

// SolidAt reports whether the node at flat offset i is solid.
func (l *Lattice) SolidAt(i int) bool { return l.cells[i].iso >= l.cfg.Cutoff }

// Grounded reports the traverser's grounded flag at idx.
func (l *Lattice) Grounded(idx Index) bool {
	if i, ok := l.Flat(idx); ok {
		return l.grounded[i]
	}
	return false
}

// GroundedAt reports the grounded flag at a flat offset.
func (l *Lattice) GroundedAt(i int) bool { return l.grounded[i] }

// SetGroundedAt stores the grounded flag. Only the connectivity traverser
// writes it.
func (l *Lattice) SetGroundedAt(i int, v bool) { l.grounded[i] = v }

// Position returns the world position of idx. Ghost indices extrapolate.
func (l *Lattice) Position(idx Index) mgl32.Vec3 {
	s := l.cfg.Spacing
	return l.cfg.Origin.Add(mgl32.Vec3{float32(idx.X) * s, float32(idx.Y) * s, float32(idx.Z) * s})
}

// IndexAt returns the nearest node index to a world position. The result
// may lie outside the grid.
func (l *Lattice) IndexAt(p mgl32.Vec3) Index {
	rel := p.Sub(l.cfg.Origin).Mul(1 / l.cfg.Spacing)
	return Index{
		X: int(math.Round(float64(rel.X()))),
		Y: int(math.Round(float64(rel.Y()))),
		Z: int(math.Round(float64(rel.Z()))),
	}
}

// Clear resets every node to empty and drops the change journals. The
// grounded flags are cleared as well.
func (l *Lattice) Clear() {
	for i := range l.cells {
		l.cells[i] = cell{}
		l.grounded[i] = false
	}
	l.changed = map[int]struct{}{}
	l.liquidChanged = map[int]struct{}{}
}

// TotalLiquid sums liquid over every node.
func (l *Lattice) TotalLiquid() float64 {
	var sum float64
	for i := range l.cells {
		sum += float64(l.cells[i].liquid)
	}
	return sum
}

// CountSolid returns the number of solid nodes.
func (l *Lattice) CountSolid() int {
	n := 0
	for i := range l.cells {
		if l.cells[i].iso >= l.cfg.Cutoff {
			n++
		}
	}
	return n
}

func (l *Lattice) markChanged(i int)       { l.changed[i] = struct{}{} }
func (l *Lattice) markLiquidChanged(i int) { l.liquidChanged[i] = struct{}{} }

// PendingChanges reports how many terrain changes await DrainChanges.
func (l *Lattice) PendingChanges() int { return len(l.changed) }

// DrainChanges returns the nodes whose iso or materials changed since the
// last drain, in flattened order, and resets the journal.
func (l *Lattice) DrainChanges() []Index {
	return l.drain(&l.changed)
}

// DrainLiquidChanges returns the nodes whose liquid was edited through
// AddLiquid since the last drain.
func (l *Lattice) DrainLiquidChanges() []Index {
	return l.drain(&l.liquidChanged)
}

func (l *Lattice) drain(set *map[int]struct{}) []Index {
	if len(*set) == 0 {
		return nil
	}
	flat := make([]int, 0, len(*set))
	for i := range *set {
		flat = append(flat, i)
	}
	sort.Ints(flat)
	out := make([]Index, len(flat))
	for k, i := range flat {
		out[k] = l.Unflat(i)
	}
	*set = map[int]struct{}{}
	return out
}

// ColumnRange returns the inclusive node bounds owned by column c.
func (l *Lattice) ColumnRange(c ColumnID) (Index, Index) {
	s := l.cfg.ColumnSize
	lo := Index{X: c.X * s, Y: 0, Z: c.Z * s}
	hi := Index{X: c.X*s + s, Y: l.dims.Y - 1, Z: c.Z*s + s}
	return lo, hi
}

// Owners returns every column whose node range includes idx. Nodes on a
// column boundary belong to up to four columns.
func (l *Lattice) Owners(idx Index) []ColumnID {
	if !l.Contains(idx) {
		return nil
	}
	xs := ownerAxis(idx.X, l.cfg.ColumnSize, l.cfg.ColumnsX)
	zs := ownerAxis(idx.Z, l.cfg.ColumnSize, l.cfg.ColumnsZ)
	out := make([]ColumnID, 0, len(xs)*len(zs))
	for _, cx := range xs {
		for _, cz := range zs {
			out = append(out, ColumnID{X: cx, Z: cz})
		}
	}
	return out
}

func ownerAxis(v, size, count int) []int {
	c := v / size
	var out []int
	if v%size == 0 && c > 0 {
		out = append(out, c-1)
	}
	if c < count {
		out = append(out, c)
	}
	return out
}
