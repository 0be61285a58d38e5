package lattice

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxContributions caps the number of materials blended into one node.
const MaxContributions = 4

// Epsilon is the threshold below which iso, weight and liquid values snap to
// zero.
const Epsilon = 1e-6

// Config sizes a terrain lattice in columns.
type Config struct {
	ColumnsX   int
	ColumnsZ   int
	ColumnSize int // nodes per column edge, excluding the shared boundary
	Height     int // nodes along y

	Spacing    float32 // world units between adjacent nodes
	Cutoff     float32 // iso at or above which a node is solid
	NodeVolume float32 // liquid capacity of a single node
	Origin     mgl32.Vec3

	Logger *slog.Logger
}

// DefaultConfig returns a 4x4 column lattice with 8-node columns.
func DefaultConfig() Config {
	return Config{
		ColumnsX:   4,
		ColumnsZ:   4,
		ColumnSize: 8,
		Height:     24,
		Spacing:    1,
		Cutoff:     0.5,
		NodeVolume: 1,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.ColumnsX <= 0 {
		c.ColumnsX = d.ColumnsX
	}
	if c.ColumnsZ <= 0 {
		c.ColumnsZ = d.ColumnsZ
	}
	if c.ColumnSize <= 0 {
		c.ColumnSize = d.ColumnSize
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Spacing <= 0 {
		c.Spacing = d.Spacing
	}
	if c.Cutoff <= 0 || c.Cutoff > 1 {
		c.Cutoff = d.Cutoff
	}
	if c.NodeVolume <= 0 {
		c.NodeVolume = d.NodeVolume
	}
	return c
}
