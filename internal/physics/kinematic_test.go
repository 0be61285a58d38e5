package physics

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/mesh"
)

func boxMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Indices:   []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
}

func TestBodyFallsToFloorAndRests(t *testing.T) {
	floor := func(p mgl32.Vec3) bool { return p.Y() < 0 }
	k := NewKinematic(DefaultKinematicConfig(), floor)
	id := uuid.New()
	if err := k.AddDynamic(Descriptor{ID: id, Mesh: boxMesh(), Mass: 1, Transform: mgl32.Translate3D(0, 3, 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := k.AddDynamic(Descriptor{ID: id, Mesh: boxMesh()}); !errors.Is(err, ErrDuplicateBody) {
		t.Fatalf("expected ErrDuplicateBody, got %v", err)
	}
	var rested bool
	for i := 0; i < 400 && !rested; i++ {
		for _, u := range k.Step(1.0 / 30.0) {
			if u.ID == id && u.AtRest {
				rested = true
			}
		}
	}
	if !rested {
		t.Fatal("body never came to rest")
	}
	m, _ := k.Transform(id)
	y := m.Col(3).Y()
	if y < 0 || y > 3 {
		t.Fatalf("body rested at y=%f", y)
	}
	k.RemoveDynamic(id)
	if k.Bodies() != 0 {
		t.Fatal("body not removed")
	}
}

func TestStaticRegistry(t *testing.T) {
	k := NewKinematic(DefaultKinematicConfig(), nil)
	k.SetStatic("column/0/0", Descriptor{Mesh: boxMesh()})
	k.SetStatic("column/0/0", Descriptor{Mesh: boxMesh()})
	if k.Statics() != 1 {
		t.Fatalf("expected 1 static, got %d", k.Statics())
	}
	k.RemoveStatic("column/0/0")
	if k.Statics() != 0 {
		t.Fatal("static not removed")
	}
}

func TestFootprintIgnoresSideContact(t *testing.T) {
	// A ledge two units high starts at x=1.5, beside the body's shape.
	ground := func(p mgl32.Vec3) bool { return p.Y() < 0 || (p.X() >= 1.5 && p.Y() < 2) }
	k := NewKinematic(DefaultKinematicConfig(), ground)
	start := mgl32.Translate3D(0.8, 3, 0)
	boxed, footed := uuid.New(), uuid.New()
	if err := k.AddDynamic(Descriptor{ID: boxed, Mesh: boxMesh(), Transform: start}); err != nil {
		t.Fatalf("add: %v", err)
	}
	footprint := []mgl32.Vec3{{0.5, 0, 0.5}}
	if err := k.AddDynamic(Descriptor{ID: footed, Mesh: boxMesh(), Transform: start, Footprint: footprint}); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 400; i++ {
		k.Step(1.0 / 30.0)
	}
	m, _ := k.Transform(boxed)
	if y := m.Col(3).Y(); y < 1.9 {
		t.Fatalf("box corner over the ledge should hold the body up, rested at y=%f", y)
	}
	m, _ = k.Transform(footed)
	if y := m.Col(3).Y(); y > 1 {
		t.Fatalf("body should fall past the ledge beside it, rested at y=%f", y)
	}
}
