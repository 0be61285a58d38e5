package connect

import (
	"sort"
	"testing"

	"rubble/internal/lattice"
	"rubble/internal/material"
)

func newLattice(t *testing.T) *lattice.Lattice {
	t.Helper()
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 2, 2, 8
	return lattice.New(cfg)
}

func islandSets(islands []Island) map[string]bool {
	out := map[string]bool{}
	for _, is := range islands {
		keys := make([]string, 0, len(is.Nodes))
		for _, n := range is.Nodes {
			keys = append(keys, idxKey(n))
		}
		sort.Strings(keys)
		s := ""
		for _, k := range keys {
			s += k + ";"
		}
		out[s] = true
	}
	return out
}

func idxKey(i lattice.Index) string {
	return string(rune('a'+i.X)) + string(rune('a'+i.Y)) + string(rune('a'+i.Z))
}

func TestGapSplitsColumn(t *testing.T) {
	l := newLattice(t)
	col := l.Box(lattice.Index{X: 1, Y: 0, Z: 1}, lattice.Index{X: 1, Y: 5, Z: 1})
	l.AddIso(1, material.Rock, col...)
	tr := New(l, nil)
	islands, err := tr.Full()
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if len(islands) != 0 {
		t.Fatalf("intact column should have no islands, got %v", islands)
	}
	l.DrainChanges()

	l.AddIso(-1, material.None, lattice.Index{X: 1, Y: 3, Z: 1})
	islands, err = tr.Update(l.DrainChanges())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(islands) != 1 {
		t.Fatalf("expected one island, got %d", len(islands))
	}
	want := map[lattice.Index]bool{{X: 1, Y: 4, Z: 1}: true, {X: 1, Y: 5, Z: 1}: true}
	if islands[0].Len() != len(want) {
		t.Fatalf("island %v, want y=4,5", islands[0].Nodes)
	}
	for _, n := range islands[0].Nodes {
		if !want[n] {
			t.Fatalf("unexpected island node %v", n)
		}
		if l.Grounded(n) {
			t.Fatalf("island node %v still flagged grounded", n)
		}
	}
	for y := 0; y <= 2; y++ {
		if !l.Grounded(lattice.Index{X: 1, Y: y, Z: 1}) {
			t.Fatalf("y=%d should stay grounded", y)
		}
	}
}

func TestIncrementalMatchesFull(t *testing.T) {
	build := func() *lattice.Lattice {
		l := newLattice(t)
		l.Fill(lattice.Index{X: 0, Y: 0, Z: 0}, lattice.Index{X: 4, Y: 0, Z: 4}, material.Bedrock)
		l.Fill(lattice.Index{X: 0, Y: 1, Z: 0}, lattice.Index{X: 0, Y: 6, Z: 0}, material.Rock)
		l.Fill(lattice.Index{X: 0, Y: 6, Z: 0}, lattice.Index{X: 4, Y: 6, Z: 0}, material.Rock)
		l.Fill(lattice.Index{X: 4, Y: 3, Z: 4}, lattice.Index{X: 4, Y: 4, Z: 4}, material.Clay)
		return l
	}
	inc := build()
	tr := New(inc, nil)
	if _, err := tr.Full(); err != nil {
		t.Fatal(err)
	}
	inc.DrainChanges()
	cut := []lattice.Index{{X: 0, Y: 2, Z: 0}, {X: 2, Y: 6, Z: 0}}
	inc.AddIso(-1, material.None, cut...)
	got, err := tr.Update(inc.DrainChanges())
	if err != nil {
		t.Fatal(err)
	}

	full := build()
	full.AddIso(-1, material.None, cut...)
	want, err := New(full, nil).Full()
	if err != nil {
		t.Fatal(err)
	}

	// the clay block floated from the start and is only seen by the full pass
	var wantTouched []Island
	for _, is := range want {
		if is.Nodes[0].X != 4 || is.Nodes[0].Z != 4 {
			wantTouched = append(wantTouched, is)
		}
	}
	gs, ws := islandSets(got), islandSets(wantTouched)
	if len(gs) != len(ws) {
		t.Fatalf("incremental found %d islands, full found %d", len(gs), len(ws))
	}
	for k := range ws {
		if !gs[k] {
			t.Fatalf("island %s missing from incremental result", k)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected the pillar top and the overhang tip as islands, got %d", len(got))
	}
}

func TestTraversalOrderDoesNotChangePartition(t *testing.T) {
	setup := func() (*lattice.Lattice, *Traverser) {
		l := newLattice(t)
		l.Fill(lattice.Index{X: 1, Y: 0, Z: 1}, lattice.Index{X: 3, Y: 1, Z: 3}, material.Rock)
		l.Fill(lattice.Index{X: 1, Y: 2, Z: 1}, lattice.Index{X: 1, Y: 5, Z: 1}, material.Rock)
		l.Fill(lattice.Index{X: 3, Y: 2, Z: 3}, lattice.Index{X: 3, Y: 5, Z: 3}, material.Dirt)
		tr := New(l, nil)
		if _, err := tr.Full(); err != nil {
			t.Fatal(err)
		}
		l.DrainChanges()
		return l, tr
	}
	cut := []lattice.Index{{X: 1, Y: 3, Z: 1}, {X: 3, Y: 2, Z: 3}}

	l1, tr1 := setup()
	l1.AddIso(-1, material.None, cut...)
	a, err := tr1.Update(l1.DrainChanges())
	if err != nil {
		t.Fatal(err)
	}

	l2, tr2 := setup()
	l2.AddIso(-1, material.None, cut...)
	changes := l2.DrainChanges()
	for i, j := 0, len(changes)-1; i < j; i, j = i+1, j-1 {
		changes[i], changes[j] = changes[j], changes[i]
	}
	b, err := tr2.Update(changes)
	if err != nil {
		t.Fatal(err)
	}
	as, bs := islandSets(a), islandSets(b)
	if len(as) != 2 || len(as) != len(bs) {
		t.Fatalf("expected two islands either way, got %d and %d", len(as), len(bs))
	}
	for k := range as {
		if !bs[k] {
			t.Fatalf("island %s depends on traversal order", k)
		}
	}
}

func TestNothingGroundedWhenScopeFloats(t *testing.T) {
	l := newLattice(t)
	l.Fill(lattice.Index{X: 2, Y: 0, Z: 2}, lattice.Index{X: 2, Y: 4, Z: 2}, material.Rock)
	tr := New(l, nil)
	if _, err := tr.Full(); err != nil {
		t.Fatal(err)
	}
	l.DrainChanges()
	l.AddIso(-1, material.None, lattice.Index{X: 2, Y: 0, Z: 2})
	islands, err := tr.Update(l.DrainChanges())
	if err != nil {
		t.Fatal(err)
	}
	if len(islands) != 1 || islands[0].Len() != 4 {
		t.Fatalf("expected the whole pillar as one island, got %v", islands)
	}
	for y := 1; y <= 4; y++ {
		if l.Grounded(lattice.Index{X: 2, Y: y, Z: 2}) {
			t.Fatalf("y=%d kept a stale grounded flag", y)
		}
	}
}

func TestBridgeRegroundsWholeIsland(t *testing.T) {
	l := newLattice(t)
	l.AddIso(1, material.Rock, l.Box(lattice.Index{X: 0, Y: 0, Z: 0}, lattice.Index{X: 0, Y: 4, Z: 0})...)
	ledge := l.Box(lattice.Index{X: 2, Y: 4, Z: 0}, lattice.Index{X: 4, Y: 4, Z: 0})
	ledge = append(ledge, l.Box(lattice.Index{X: 4, Y: 4, Z: 1}, lattice.Index{X: 4, Y: 4, Z: 4})...)
	l.AddIso(1, material.Rock, ledge...)
	tr := New(l, nil)
	islands, err := tr.Full()
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if len(islands) != 1 || islands[0].Len() != len(ledge) {
		t.Fatalf("ledge should float as one island, got %v", islands)
	}
	l.DrainChanges()

	// The ledge stays in the lattice flagged ungrounded until a bridge joins it
	// to the pillar. Its far end is farther from the bridge than the ground is.
	l.AddIso(1, material.Rock, lattice.Index{X: 1, Y: 4, Z: 0})
	islands, err = tr.Update(l.DrainChanges())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(islands) != 0 {
		t.Fatalf("bridged ledge should be grounded, got %v", islands)
	}
	for _, n := range ledge {
		if !l.Grounded(n) {
			t.Fatalf("ledge node %v left ungrounded", n)
		}
	}
}
