package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/material"
)

func solidGrid(cols, size, height int) *lattice.Lattice {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = cols, cols, size, height
	l := lattice.New(cfg)
	d := l.Dims()
	l.Fill(lattice.Index{}, lattice.Index{X: d.X - 1, Y: d.Y - 1, Z: d.Z - 1}, material.Rock)
	l.DrainChanges()
	return l
}

func containsColumn(ids []lattice.ColumnID, c lattice.ColumnID) bool {
	for _, id := range ids {
		if id == c {
			return true
		}
	}
	return false
}

func TestBuildVolumeClosedAndOutward(t *testing.T) {
	cfg := lattice.DefaultConfig()
	l := lattice.NewVolume(core.NewDims(5, 5, 5), cfg)
	l.Fill(lattice.Index{X: 1, Y: 1, Z: 1}, lattice.Index{X: 3, Y: 3, Z: 3}, material.Clay)
	m := BuildVolume(l, DefaultBuildOptions())
	if m.Empty() {
		t.Fatal("expected a surface around the block")
	}
	if v := m.Volume(); v < 20 || v > 27 {
		t.Fatalf("unexpected enclosed volume %f", v)
	}
	edges := map[[2]mgl32.Vec3]int{}
	for k := 0; k < len(m.Indices); k += 3 {
		for i := 0; i < 3; i++ {
			a := m.Positions[m.Indices[k+i]]
			b := m.Positions[m.Indices[k+(i+1)%3]]
			edges[[2]mgl32.Vec3{a, b}]++
		}
	}
	for e, n := range edges {
		if edges[[2]mgl32.Vec3{e[1], e[0]}] != n {
			t.Fatalf("edge %v is not matched by its reverse", e)
		}
	}
	if len(m.Groups) != 1 || m.Groups[0].Material != material.Clay || m.Groups[0].Count != len(m.Indices) {
		t.Fatalf("expected a single clay group, got %+v", m.Groups)
	}
	for i, n := range m.Normals {
		if l := n.Len(); l < 0.99 || l > 1.01 {
			t.Fatalf("normal %d not unit length: %v", i, n)
		}
	}
}

func TestBuildGroupsByMaterial(t *testing.T) {
	cfg := lattice.DefaultConfig()
	l := lattice.NewVolume(core.NewDims(6, 3, 3), cfg)
	l.Fill(lattice.Index{X: 1, Y: 1, Z: 1}, lattice.Index{X: 2, Y: 1, Z: 1}, material.Sand)
	l.Fill(lattice.Index{X: 3, Y: 1, Z: 1}, lattice.Index{X: 4, Y: 1, Z: 1}, material.Rock)
	m := BuildVolume(l, DefaultBuildOptions())
	if len(m.Groups) != 2 {
		t.Fatalf("expected two material groups, got %+v", m.Groups)
	}
	if m.Groups[0].Material >= m.Groups[1].Material {
		t.Fatal("groups should be ordered by material id")
	}
	total := 0
	for _, g := range m.Groups {
		total += g.Count
	}
	if total != len(m.Indices) {
		t.Fatalf("groups cover %d of %d indices", total, len(m.Indices))
	}
}

func TestEmptyColumnHasNoMesh(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 2, 2, 3
	l := lattice.New(cfg)
	m := NewMesher(l, DefaultBuildOptions(), nil)
	for _, cm := range m.Flush() {
		if cm.Mesh != nil {
			t.Fatalf("column %v of an empty lattice produced a mesh", cm.ID)
		}
	}
	if len(m.Dirty()) != 0 {
		t.Fatal("flush should clear the queue")
	}
}

func TestClearingBoundaryFlagsNeighbours(t *testing.T) {
	l := solidGrid(2, 2, 3)
	m := NewMesher(l, DefaultBuildOptions(), nil)
	m.Flush()
	before := m.Mesh(lattice.ColumnID{X: 0, Z: 0})
	if before == nil {
		t.Fatal("solid column should have a mesh")
	}

	var cleared []lattice.Index
	for _, idx := range l.ColumnNodes(lattice.ColumnID{X: 0, Z: 0}) {
		if idx.Y == 1 {
			cleared = append(cleared, idx)
		}
	}
	l.AddIso(-1, material.None, cleared...)
	m.MarkNodes(l.DrainChanges())

	dirty := m.Dirty()
	for _, c := range []lattice.ColumnID{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}} {
		if !containsColumn(dirty, c) {
			t.Fatalf("column %v should be flagged, dirty=%v", c, dirty)
		}
	}
	results := m.Flush()
	if len(results) != len(dirty) {
		t.Fatalf("expected %d regenerated columns, got %d", len(dirty), len(results))
	}
	after := m.Mesh(lattice.ColumnID{X: 0, Z: 0})
	if after == nil || after.TriangleCount() <= before.TriangleCount() {
		t.Fatal("carving a gap should add interior surface to the column")
	}
}

func TestInteriorEditFlagsOnlyOwner(t *testing.T) {
	l := solidGrid(2, 2, 3)
	m := NewMesher(l, DefaultBuildOptions(), nil)
	m.Flush()
	l.AddIso(-1, material.None, lattice.Index{X: 1, Y: 1, Z: 1})
	m.MarkNodes(l.DrainChanges())
	dirty := m.Dirty()
	if len(dirty) != 1 || dirty[0] != (lattice.ColumnID{}) {
		t.Fatalf("expected only column (0,0), got %v", dirty)
	}
}

func TestColumnSeamsShareVertices(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 1, 3, 5
	l := lattice.New(cfg)
	for _, idx := range l.Sphere(l.Position(lattice.Index{X: 3, Y: 2, Z: 1}), 1.8) {
		l.AddIso(0.35+0.1*float32(idx.Y), material.Dirt, idx)
	}
	m := NewMesher(l, DefaultBuildOptions(), nil)
	m.Flush()
	left := m.Mesh(lattice.ColumnID{X: 0, Z: 0})
	right := m.Mesh(lattice.ColumnID{X: 1, Z: 0})
	if left == nil || right == nil {
		t.Fatal("both columns should carry part of the blob")
	}
	seam := l.Position(lattice.Index{X: 3}).X()
	rightPts := map[mgl32.Vec3]bool{}
	for _, p := range right.Positions {
		if p.X() == seam {
			rightPts[p] = true
		}
	}
	shared := 0
	for _, p := range left.Positions {
		if p.X() != seam {
			continue
		}
		if !rightPts[p] {
			t.Fatalf("seam vertex %v missing from neighbouring column", p)
		}
		shared++
	}
	if shared == 0 {
		t.Fatal("expected vertices on the seam")
	}
}
