package core

// Dims describes the extent of a 3D grid of cells in index units.
//
// Cells are flattened y-major then z then x: i = (y*Z + z)*X + x. Every
// package that shares the lattice index space (terrain, fluid, level codec)
// goes through this type so the ordering never drifts between them.
type Dims struct {
	X, Y, Z int
}

// NewDims clamps non-positive extents to one cell.
func NewDims(x, y, z int) Dims {
	if x <= 0 {
		x = 1
	}
	if y <= 0 {
		y = 1
	}
	if z <= 0 {
		z = 1
	}
	return Dims{X: x, Y: y, Z: z}
}

// Len returns the number of cells.
func (d Dims) Len() int { return d.X * d.Y * d.Z }

// Contains reports whether (x, y, z) lies inside the grid.
func (d Dims) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < d.X && y < d.Y && z < d.Z
}

// Index returns the flattened index for (x, y, z). Callers must check
// Contains first.
func (d Dims) Index(x, y, z int) int { return (y*d.Z+z)*d.X + x }

// Coords inverts Index.
func (d Dims) Coords(i int) (x, y, z int) {
	x = i % d.X
	i /= d.X
	z = i % d.Z
	y = i / d.Z
	return
}

// Pad grows every axis by border cells on both sides.
func (d Dims) Pad(border int) Dims {
	return Dims{X: d.X + 2*border, Y: d.Y + 2*border, Z: d.Z + 2*border}
}

// Neighbors6 lists the face-adjacent offsets in +x, -x, +y, -y, +z, -z order.
// Opposite directions differ only in the lowest bit.
var Neighbors6 = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Opposite returns the direction index pointing the other way.
func Opposite(dir int) int { return dir ^ 1 }
