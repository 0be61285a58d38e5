// Package physics defines the contract between the terrain core and a
// rigid-body engine, plus a small kinematic implementation for headless runs.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/mesh"
)

// Descriptor hands a shape to the physics engine.
type Descriptor struct {
	ID          uuid.UUID
	Mesh        *mesh.Mesh
	Mass        float32
	Friction    float32
	Restitution float32
	Transform   mgl32.Mat4

	// Footprint lists local points on the underside of the shape. When set,
	// a dynamic body lands only on something directly beneath one of them.
	Footprint []mgl32.Vec3
}

// Update reports a dynamic body's pose after a step.
type Update struct {
	ID        uuid.UUID
	Transform mgl32.Mat4
	AtRest    bool
}

// Engine is the rigid-body collaborator. Static bodies are keyed by name
// (terrain columns, bedrock); dynamic bodies by their descriptor ID.
type Engine interface {
	SetStatic(key string, d Descriptor)
	RemoveStatic(key string)
	AddDynamic(d Descriptor) error
	RemoveDynamic(id uuid.UUID)
	Step(dt float32) []Update
}
