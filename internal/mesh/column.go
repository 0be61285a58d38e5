package mesh

import (
	"log/slog"
	"sort"

	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/mc"
)

// ColumnMesh is the regenerated surface of one column. Mesh is nil when the
// column has no surface.
type ColumnMesh struct {
	ID   lattice.ColumnID
	Mesh *Mesh
}

// Mesher owns the per-column meshes of a lattice and the set of columns
// awaiting regeneration.
type Mesher struct {
	lat    *lattice.Lattice
	opts   BuildOptions
	log    *slog.Logger
	meshes map[lattice.ColumnID]*Mesh
	dirty  map[lattice.ColumnID]struct{}
	tris   []mc.Triangle
}

// NewMesher returns a mesher for lat with every column marked dirty.
func NewMesher(lat *lattice.Lattice, opts BuildOptions, log *slog.Logger) *Mesher {
	m := &Mesher{
		lat:    lat,
		opts:   opts,
		log:    core.Logger(log),
		meshes: map[lattice.ColumnID]*Mesh{},
		dirty:  map[lattice.ColumnID]struct{}{},
	}
	m.MarkAll()
	return m
}

// Mesh returns the current mesh of column c, nil if it has none.
func (m *Mesher) Mesh(c lattice.ColumnID) *Mesh { return m.meshes[c] }

// Meshes returns the non-empty column meshes.
func (m *Mesher) Meshes() map[lattice.ColumnID]*Mesh { return m.meshes }

// MarkAll queues every column.
func (m *Mesher) MarkAll() {
	cx, cz := m.lat.Columns()
	for x := 0; x < cx; x++ {
		for z := 0; z < cz; z++ {
			m.dirty[lattice.ColumnID{X: x, Z: z}] = struct{}{}
		}
	}
}

// MarkNodes queues every column that meshes a cell touching one of the
// given nodes. A node on a column boundary queues all columns sharing it.
func (m *Mesher) MarkNodes(nodes []lattice.Index) {
	for _, idx := range nodes {
		for _, c := range m.Affected(idx) {
			m.dirty[c] = struct{}{}
		}
	}
}

// Affected returns the columns whose cells have idx as a corner.
func (m *Mesher) Affected(idx lattice.Index) []lattice.ColumnID {
	cx, cz := m.lat.Columns()
	s := m.lat.ColumnSize()
	xs := cellColumns(idx.X, s, cx)
	zs := cellColumns(idx.Z, s, cz)
	out := make([]lattice.ColumnID, 0, len(xs)*len(zs))
	for _, x := range xs {
		for _, z := range zs {
			out = append(out, lattice.ColumnID{X: x, Z: z})
		}
	}
	return out
}

func cellColumns(v, size, count int) []int {
	a := cellColumn(v-1, size, count)
	b := cellColumn(v, size, count)
	if a == b {
		return []int{a}
	}
	return []int{a, b}
}

func cellColumn(cell, size, count int) int {
	c := cell / size
	if cell < 0 {
		c = 0
	}
	if c >= count {
		c = count - 1
	}
	return c
}

// Dirty returns the queued columns in x-major order.
func (m *Mesher) Dirty() []lattice.ColumnID {
	out := make([]lattice.ColumnID, 0, len(m.dirty))
	for c := range m.dirty {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Flush regenerates every queued column once and clears the queue.
func (m *Mesher) Flush() []ColumnMesh {
	ids := m.Dirty()
	out := make([]ColumnMesh, 0, len(ids))
	for _, c := range ids {
		mesh := m.BuildColumn(c)
		if mesh == nil {
			delete(m.meshes, c)
		} else {
			m.meshes[c] = mesh
		}
		out = append(out, ColumnMesh{ID: c, Mesh: mesh})
	}
	m.dirty = map[lattice.ColumnID]struct{}{}
	if len(out) > 0 {
		m.log.Debug("columns regenerated", "count", len(out))
	}
	return out
}

// BuildColumn triangulates column c. Its cells start at the column's first
// node and reach the first node of the next column, so boundary geometry is
// computed from the same shared nodes on both sides. Columns on the grid
// edge also cover the ghost cells outside it to close the surface.
func (m *Mesher) BuildColumn(c lattice.ColumnID) *Mesh {
	cx, cz := m.lat.Columns()
	s := m.lat.ColumnSize()
	x0, x1 := cellSpan(c.X, s, cx)
	z0, z1 := cellSpan(c.Z, s, cz)
	m.tris = m.tris[:0]
	for y := -1; y < m.lat.Dims().Y; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				m.tris = mc.Cell(m.lat, x, y, z, m.tris)
			}
		}
	}
	return Build(m.tris, m.opts)
}

func cellSpan(c, size, count int) (int, int) {
	lo, hi := c*size, c*size+size
	if c == 0 {
		lo = -1
	}
	if c == count-1 {
		hi++
	}
	return lo, hi
}

// BuildVolume triangulates every cell of a free-standing lattice, ghost
// border included.
func BuildVolume(l *lattice.Lattice, opts BuildOptions) *Mesh {
	d := l.Dims()
	var tris []mc.Triangle
	for y := -1; y < d.Y; y++ {
		for z := -1; z < d.Z; z++ {
			for x := -1; x < d.X; x++ {
				tris = mc.Cell(l, x, y, z, tris)
			}
		}
	}
	return Build(tris, opts)
}
