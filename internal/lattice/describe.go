package lattice

import (
	"errors"
	"fmt"
	"strings"

	"rubble/internal/material"
)

// ErrInvalidDescription is returned when a declarative terrain description
// fails validation. The lattice is left cleared.
var ErrInvalidDescription = errors.New("invalid terrain description")

// WaterMaterial is the reserved layer name that fills a range with liquid
// instead of terrain.
const WaterMaterial = "water"

// Layer fills nodes [Start, End) along y with Material.
type Layer struct {
	Material string
	Start    int
	End      int
}

// ColumnLayers lists the layers of the vertical node line at (X, Z).
type ColumnLayers struct {
	X, Z   int
	Layers []Layer
}

// Description is a declarative terrain layout. Later layers overwrite
// earlier ones where they overlap.
type Description struct {
	Columns []ColumnLayers
}

// Add appends a layer to the node line at (x, z).
func (d *Description) Add(x, z int, mat string, start, end int) {
	for i := range d.Columns {
		if d.Columns[i].X == x && d.Columns[i].Z == z {
			d.Columns[i].Layers = append(d.Columns[i].Layers, Layer{Material: mat, Start: start, End: end})
			return
		}
	}
	d.Columns = append(d.Columns, ColumnLayers{X: x, Z: z, Layers: []Layer{{Material: mat, Start: start, End: end}}})
}

// Build validates d against reg and the lattice extent, then replaces the
// lattice contents. Any invalid entry aborts the whole build, clears the
// lattice and returns an error wrapping ErrInvalidDescription.
func (l *Lattice) Build(d Description, reg *material.Registry) error {
	type resolved struct {
		col   ColumnLayers
		mats  []material.ID
		water []bool
	}
	plan := make([]resolved, 0, len(d.Columns))
	for _, col := range d.Columns {
		if col.X < 0 || col.Z < 0 || col.X >= l.dims.X || col.Z >= l.dims.Z {
			l.Clear()
			return fmt.Errorf("%w: column (%d,%d) outside %dx%d nodes", ErrInvalidDescription, col.X, col.Z, l.dims.X, l.dims.Z)
		}
		r := resolved{col: col, mats: make([]material.ID, len(col.Layers)), water: make([]bool, len(col.Layers))}
		for k, layer := range col.Layers {
			if err := l.checkLayer(layer); err != nil {
				l.Clear()
				return fmt.Errorf("%w: column (%d,%d) layer %d: %v", ErrInvalidDescription, col.X, col.Z, k, err)
			}
			if strings.EqualFold(strings.TrimSpace(layer.Material), WaterMaterial) {
				r.water[k] = true
				continue
			}
			m, ok := reg.Lookup(layer.Material)
			if !ok {
				l.Clear()
				return fmt.Errorf("%w: column (%d,%d) layer %d: unknown material %q", ErrInvalidDescription, col.X, col.Z, k, layer.Material)
			}
			r.mats[k] = m.ID
		}
		plan = append(plan, r)
	}

	l.Clear()
	for _, r := range plan {
		for k, layer := range r.col.Layers {
			for y := layer.Start; y < layer.End; y++ {
				i := l.dims.Index(r.col.X, y, r.col.Z)
				c := &l.cells[i]
				if r.water[k] {
					*c = cell{liquid: l.cfg.NodeVolume}
					l.markLiquidChanged(i)
				} else {
					*c = cell{iso: 1}
					c.paint(r.mats[k], 1)
				}
				l.markChanged(i)
			}
		}
	}
	l.log.Debug("terrain built", "columns", len(plan), "solid", l.CountSolid())
	return nil
}

func (l *Lattice) checkLayer(layer Layer) error {
	switch {
	case layer.Start < 0 || layer.End < 0:
		return fmt.Errorf("negative range [%d,%d)", layer.Start, layer.End)
	case layer.End <= layer.Start:
		return fmt.Errorf("empty range [%d,%d)", layer.Start, layer.End)
	case layer.End > l.dims.Y:
		return fmt.Errorf("range [%d,%d) exceeds height %d", layer.Start, layer.End, l.dims.Y)
	case strings.TrimSpace(layer.Material) == "":
		return errors.New("missing material")
	}
	return nil
}
