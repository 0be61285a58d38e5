package core

import "testing"

func TestDimsIndexRoundTrip(t *testing.T) {
	d := NewDims(5, 3, 4)
	seen := make(map[int]bool, d.Len())
	for y := 0; y < d.Y; y++ {
		for z := 0; z < d.Z; z++ {
			for x := 0; x < d.X; x++ {
				i := d.Index(x, y, z)
				if seen[i] {
					t.Fatalf("index %d produced twice", i)
				}
				seen[i] = true
				gx, gy, gz := d.Coords(i)
				if gx != x || gy != y || gz != z {
					t.Fatalf("coords(%d) = (%d,%d,%d), want (%d,%d,%d)", i, gx, gy, gz, x, y, z)
				}
			}
		}
	}
	if len(seen) != d.Len() {
		t.Fatalf("expected %d unique indices, got %d", d.Len(), len(seen))
	}
}

func TestDimsClampsAndContains(t *testing.T) {
	d := NewDims(0, -2, 3)
	if d.X != 1 || d.Y != 1 || d.Z != 3 {
		t.Fatalf("unexpected clamped dims %+v", d)
	}
	if d.Contains(-1, 0, 0) || d.Contains(0, 1, 0) || d.Contains(0, 0, 3) {
		t.Fatal("out-of-range coordinates reported as contained")
	}
	if !d.Contains(0, 0, 2) {
		t.Fatal("in-range coordinate rejected")
	}
}

func TestNeighborsOpposite(t *testing.T) {
	for dir, off := range Neighbors6 {
		opp := Neighbors6[Opposite(dir)]
		if off[0]+opp[0] != 0 || off[1]+opp[1] != 0 || off[2]+opp[2] != 0 {
			t.Fatalf("direction %d and its opposite do not cancel", dir)
		}
	}
}

func TestClampStep(t *testing.T) {
	if got := ClampStep(1, MaxStep); got != MaxStep {
		t.Fatalf("expected oversized step to clamp to %f, got %f", MaxStep, got)
	}
	if got := ClampStep(-1, MaxStep); got != 0 {
		t.Fatalf("expected negative step to yield 0, got %f", got)
	}
	if got := ClampStep(0.01, MaxStep); got != 0.01 {
		t.Fatalf("expected small step to pass through, got %f", got)
	}
}
