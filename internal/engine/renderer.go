package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/fluid"
	"rubble/internal/lattice"
	"rubble/internal/mesh"
)

// Renderer receives everything the engine wants drawn. The engine never
// issues draw calls itself; a nil mesh means the shape has no surface.
type Renderer interface {
	Column(id lattice.ColumnID, m *mesh.Mesh)
	Debris(id uuid.UUID, m *mesh.Mesh, transform mgl32.Mat4)
	RemoveDebris(id uuid.UUID)
	Fluid(f fluid.Field)
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) Column(lattice.ColumnID, *mesh.Mesh) {}
func (NopRenderer) Debris(uuid.UUID, *mesh.Mesh, mgl32.Mat4) {}
func (NopRenderer) RemoveDebris(uuid.UUID) {}
func (NopRenderer) Fluid(fluid.Field) {}
