package core

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 32; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestRNGRangeBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 200; i++ {
		if v := r.Range(3, 5); v < 3 || v > 5 {
			t.Fatalf("Range(3,5) returned %d", v)
		}
	}
	if v := r.Range(4, 4); v != 4 {
		t.Fatalf("degenerate range returned %d", v)
	}
	if v := r.IntN(0); v != 0 {
		t.Fatalf("IntN(0) returned %d", v)
	}
}
