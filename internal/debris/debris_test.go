package debris

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/connect"
	"rubble/internal/lattice"
	"rubble/internal/material"
	"rubble/internal/physics"
)

type failingEngine struct{ physics.Engine }

func (failingEngine) AddDynamic(physics.Descriptor) error { return errors.New("no room") }

type recordingLiquid struct {
	calls    []string
	occupied []int
}

func (r *recordingLiquid) WriteBack(*lattice.Lattice) { r.calls = append(r.calls, "writeback") }
func (r *recordingLiquid) Sync(_ *lattice.Lattice, _ []lattice.Index, occupied []int) {
	r.calls = append(r.calls, "sync")
	r.occupied = occupied
}

func pillarWithGap(t *testing.T) (*lattice.Lattice, connect.Island) {
	t.Helper()
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 2, 2, 2, 8
	l := lattice.New(cfg)
	l.Fill(lattice.Index{X: 1, Y: 0, Z: 1}, lattice.Index{X: 2, Y: 5, Z: 1}, material.Rock)
	l.Paint(material.Sand, 0.4, lattice.Index{X: 2, Y: 5, Z: 1})
	l.AddIso(-0.3, material.None, lattice.Index{X: 1, Y: 5, Z: 1})
	tr := connect.New(l, nil)
	if _, err := tr.Full(); err != nil {
		t.Fatal(err)
	}
	l.DrainChanges()
	l.AddIso(-1, material.None, lattice.Index{X: 1, Y: 3, Z: 1}, lattice.Index{X: 2, Y: 3, Z: 1})
	islands, err := tr.Update(l.DrainChanges())
	if err != nil {
		t.Fatal(err)
	}
	if len(islands) != 1 || islands[0].Len() != 4 {
		t.Fatalf("expected one 4-node island, got %v", islands)
	}
	return l, islands[0]
}

func sameNode(a, b lattice.Node) bool {
	if math.Abs(float64(a.Iso-b.Iso)) > 1e-6 {
		return false
	}
	am, bm := a.Materials(), b.Materials()
	if len(am) != len(bm) {
		return false
	}
	for i := range am {
		if am[i].Material != bm[i].Material || math.Abs(float64(am[i].Weight-bm[i].Weight)) > 1e-6 {
			return false
		}
	}
	return true
}

func TestBreakoffAndMergeRoundTrip(t *testing.T) {
	l, island := pillarWithGap(t)
	snapshot := l.Snapshot(island.Nodes)

	phys := physics.NewKinematic(physics.DefaultKinematicConfig(), nil)
	f := NewFactory(DefaultConfig(), phys)
	b, ok, err := f.Breakoff(l, island)
	if err != nil || !ok {
		t.Fatalf("breakoff failed: ok=%v err=%v", ok, err)
	}
	if phys.Bodies() != 1 {
		t.Fatal("body was not registered")
	}
	if b.Mass <= 0 || b.Material != material.Rock {
		t.Fatalf("unexpected body mass %f material %d", b.Mass, b.Material)
	}
	for _, idx := range island.Nodes {
		n := l.Node(idx)
		if n.Iso != 0 || len(n.Materials()) != 0 {
			t.Fatalf("source node %v not cleared: %+v", idx, n)
		}
	}
	l.DrainChanges()

	liquid := &recordingLiquid{}
	res := NewMerger(phys, liquid, nil).Merge(l, b, nil)
	if len(res.Restored) != len(island.Nodes) {
		t.Fatalf("restored %d nodes, want %d", len(res.Restored), len(island.Nodes))
	}
	for idx, want := range snapshot {
		if got := l.Node(idx); !sameNode(got, want) {
			t.Fatalf("node %v: got %+v want %+v", idx, got, want)
		}
	}
	if phys.Bodies() != 0 {
		t.Fatal("merged body still registered")
	}
	if len(liquid.calls) != 2 || liquid.calls[0] != "writeback" || liquid.calls[1] != "sync" {
		t.Fatalf("unexpected solver calls %v", liquid.calls)
	}
	if len(liquid.occupied) != 0 {
		t.Fatalf("no bodies remain, occupancy %v", liquid.occupied)
	}
}

func TestMergeDisplacesLiquid(t *testing.T) {
	l, island := pillarWithGap(t)
	f := NewFactory(DefaultConfig(), nil)
	b, ok, err := f.Breakoff(l, island)
	if err != nil || !ok {
		t.Fatalf("breakoff failed: ok=%v err=%v", ok, err)
	}
	target := lattice.Index{X: 1, Y: 4, Z: 1}
	l.AddLiquid(0.6, target)

	res := NewMerger(nil, nil, nil).Merge(l, b, nil)
	if got := l.Node(target).Liquid; got != 0 {
		t.Fatalf("restored node kept liquid %f", got)
	}
	if math.Abs(float64(res.Displaced-0.6)) > 1e-5 || res.Lost != 0 {
		t.Fatalf("displaced %f lost %f", res.Displaced, res.Lost)
	}
	if total := l.TotalLiquid(); math.Abs(total-0.6) > 1e-5 {
		t.Fatalf("liquid not conserved: %f", total)
	}
	for _, p := range res.Periphery {
		if l.Iso(p) > 0 {
			t.Fatalf("periphery node %v holds terrain", p)
		}
	}
}

func TestBreakoffRejectsTinyIsland(t *testing.T) {
	cfg := lattice.DefaultConfig()
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = 1, 1, 4, 6
	l := lattice.New(cfg)
	idx := lattice.Index{X: 2, Y: 3, Z: 2}
	l.AddIso(0.5, material.Dirt, idx)
	island := connect.Island{Nodes: []lattice.Index{idx}}
	b, ok, err := NewFactory(DefaultConfig(), nil).Breakoff(l, island)
	if err != nil || ok || b != nil {
		t.Fatalf("expected a silent rejection, got body=%v ok=%v err=%v", b, ok, err)
	}
	if l.Iso(idx) != 0.5 {
		t.Fatal("rejected island must stay in the lattice")
	}
}

func TestBreakoffLeavesLatticeOnPhysicsError(t *testing.T) {
	l, island := pillarWithGap(t)
	before := l.Snapshot(island.Nodes)
	_, ok, err := NewFactory(DefaultConfig(), failingEngine{}).Breakoff(l, island)
	if err == nil || ok {
		t.Fatal("expected registration error")
	}
	for idx, want := range before {
		if !sameNode(l.Node(idx), want) {
			t.Fatalf("node %v modified despite failed registration", idx)
		}
	}
}

func TestOccupancyFollowsTransform(t *testing.T) {
	l, island := pillarWithGap(t)
	b, ok, err := NewFactory(DefaultConfig(), nil).Breakoff(l, island)
	if err != nil || !ok {
		t.Fatal("breakoff failed")
	}
	occ := Occupancy(l, []*Body{b})
	if len(occ) != island.Len() {
		t.Fatalf("expected %d occupied nodes, got %d", island.Len(), len(occ))
	}
	origin := b.Transform.Col(3).Vec3()
	b.Transform = mgl32.Translate3D(origin.X(), origin.Y()-1, origin.Z())
	moved := Occupancy(l, []*Body{b})
	want, _ := l.Flat(lattice.Index{X: 1, Y: 3, Z: 1})
	found := false
	for _, i := range moved {
		if i == want {
			found = true
		}
	}
	if !found {
		t.Fatal("lowered body should occupy the gap")
	}
	if b.ID == uuid.Nil {
		t.Fatal("body id not assigned")
	}
}
