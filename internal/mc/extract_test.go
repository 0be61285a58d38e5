package mc

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/lattice"
	"rubble/internal/material"
)

func unitCube(iso [8]float32) [8]Corner {
	var c [8]Corner
	for i, off := range cornerOffsets {
		c[i] = Corner{
			Pos:      mgl32.Vec3{float32(off[0]), float32(off[1]), float32(off[2])},
			Iso:      iso[i],
			Material: material.Rock,
		}
	}
	return c
}

func TestUniformCubesYieldNothing(t *testing.T) {
	full := unitCube([8]float32{1, 1, 1, 1, 1, 1, 1, 1})
	if tris := Polygonise(&full, 0.5, nil); len(tris) != 0 {
		t.Fatalf("solid cube produced %d triangles", len(tris))
	}
	empty := unitCube([8]float32{0.1, 0, 0.2, 0, 0.4, 0, 0, 0.49})
	if tris := Polygonise(&empty, 0.5, nil); len(tris) != 0 {
		t.Fatalf("empty cube produced %d triangles", len(tris))
	}
}

func TestTablesAgree(t *testing.T) {
	for ci := 0; ci < 256; ci++ {
		var used uint16
		row := triTable[ci]
		for k := 0; row[k] >= 0; k++ {
			used |= 1 << row[k]
		}
		if used != edgeTable[ci] {
			t.Fatalf("cube %d: triangles use edges %03x, edge table says %03x", ci, used, edgeTable[ci])
		}
	}
}

func TestSingleCornerInterpolation(t *testing.T) {
	c := unitCube([8]float32{1, 0, 0, 0, 0, 0, 0, 0})
	tris := Polygonise(&c, 0.5, nil)
	if len(tris) != 1 {
		t.Fatalf("expected one triangle, got %d", len(tris))
	}
	for _, v := range tris[0].V {
		sum := v.Pos.X() + v.Pos.Y() + v.Pos.Z()
		if math.Abs(float64(sum-0.5)) > 1e-6 {
			t.Fatalf("vertex %v not at the edge midpoint", v.Pos)
		}
		if v.Material != material.Rock {
			t.Fatalf("vertex material %d, want rock", v.Material)
		}
	}
}

func TestFlatEdgeFallsBackToLowCorner(t *testing.T) {
	a := Corner{Pos: mgl32.Vec3{1, 0, 0}, Iso: 0.5, Material: material.Sand}
	b := Corner{Pos: mgl32.Vec3{0, 0, 0}, Iso: 0.5 + Epsilon/2}
	v := interpolate(&a, &b, 0.5)
	if v.Pos != (mgl32.Vec3{0, 0, 0}) {
		t.Fatalf("expected low corner position, got %v", v.Pos)
	}
}

func TestSharedEdgeIdentical(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 1, 1, 4, 4
	cfg.Spacing = 0.37
	l := lattice.New(cfg)
	l.AddIso(0.93, material.Rock, lattice.Index{X: 1, Y: 1, Z: 1})
	l.AddIso(0.21, material.Rock, lattice.Index{X: 2, Y: 1, Z: 1})

	// Cells (0,0,0) and (1,0,0) share the face x=1, which carries the
	// crossed edges around node (1,1,1).
	left := Cell(l, 0, 0, 0, nil)
	right := Cell(l, 1, 0, 0, nil)
	pts := map[mgl32.Vec3]bool{}
	for _, tri := range left {
		for _, v := range tri.V {
			if v.Pos.X() == l.Position(lattice.Index{X: 1}).X() {
				pts[v.Pos] = true
			}
		}
	}
	if len(pts) == 0 {
		t.Fatal("expected vertices on the shared face")
	}
	matched := 0
	for _, tri := range right {
		for _, v := range tri.V {
			if pts[v.Pos] {
				matched++
			}
		}
	}
	if matched == 0 {
		t.Fatal("no bit-identical vertices across the shared face")
	}
}

func TestSingleNodeEnclosesPositiveVolume(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 1, 1, 2, 3
	l := lattice.New(cfg)
	l.AddIso(1, material.Rock, lattice.Index{X: 1, Y: 1, Z: 1})
	var tris []Triangle
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				tris = Cell(l, x, y, z, tris)
			}
		}
	}
	if len(tris) != 8 {
		t.Fatalf("expected an octahedron of 8 triangles, got %d", len(tris))
	}
	var vol float32
	for _, tri := range tris {
		vol += tri.V[0].Pos.Dot(tri.V[1].Pos.Cross(tri.V[2].Pos)) / 6
	}
	if math.Abs(float64(vol-1.0/6.0)) > 1e-5 {
		t.Fatalf("expected outward volume 1/6, got %f", vol)
	}
}
