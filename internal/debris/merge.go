package debris

import (
	"log/slog"

	"rubble/internal/core"
	"rubble/internal/lattice"
	"rubble/internal/physics"
)

// LiquidSync is the fluid solver as seen by the merge step.
type LiquidSync interface {
	// WriteBack copies the solver's liquid volumes into the lattice.
	WriteBack(l *lattice.Lattice)
	// Sync reloads obstacle and volume state for the changed nodes given the
	// flat offsets currently covered by debris.
	Sync(l *lattice.Lattice, changed []lattice.Index, occupied []int)
}

// MergeResult summarizes one merge.
type MergeResult struct {
	Restored  []lattice.Index
	Periphery []lattice.Index
	Displaced float32
	Lost      float32
}

// Merger folds resting bodies back into the lattice.
type Merger struct {
	phys   physics.Engine
	liquid LiquidSync
	log    *slog.Logger
}

// NewMerger returns a merger. liquid may be nil when no solver runs.
func NewMerger(phys physics.Engine, liquid LiquidSync, log *slog.Logger) *Merger {
	return &Merger{phys: phys, liquid: liquid, log: core.Logger(log)}
}

// Merge restores b's captured terrain at its current pose. Liquid found in
// restored nodes is spread evenly over the empty nodes bordering them. The
// body is removed from the physics engine and the solver is resynced
// against the remaining bodies.
func (m *Merger) Merge(lat *lattice.Lattice, b *Body, remaining []*Body) MergeResult {
	if m.liquid != nil {
		m.liquid.WriteBack(lat)
	}

	var res MergeResult
	var queued float32
	restored := map[lattice.Index]bool{}
	lo, hi := b.WorldBounds()
	for _, idx := range lat.WorldBox(lo, hi) {
		local, ok := b.Contains(lat.Position(idx))
		if !ok {
			continue
		}
		src := b.Volume.Node(local)
		dst := lat.Node(idx)
		if dst.Iso >= src.Iso {
			continue
		}
		queued += dst.Liquid
		lat.Restore(idx, src)
		restored[idx] = true
		res.Restored = append(res.Restored, idx)
	}

	res.Periphery = periphery(lat, res.Restored, restored)
	res.Displaced, res.Lost = displace(lat, res.Periphery, queued)
	if res.Lost > lattice.Epsilon {
		m.log.Warn("liquid could not be displaced", "body", b.ID, "lost", res.Lost)
	}

	if m.phys != nil {
		m.phys.RemoveDynamic(b.ID)
	}
	if m.liquid != nil {
		changed := append(append([]lattice.Index(nil), res.Restored...), res.Periphery...)
		m.liquid.Sync(lat, changed, Occupancy(lat, remaining))
	}
	m.log.Debug("debris merged", "body", b.ID, "restored", len(res.Restored), "displaced", res.Displaced)
	return res
}

// periphery lists the in-grid non-terrain face neighbours of the restored
// set.
func periphery(lat *lattice.Lattice, nodes []lattice.Index, restored map[lattice.Index]bool) []lattice.Index {
	seen := map[lattice.Index]bool{}
	var out []lattice.Index
	for _, idx := range nodes {
		for _, off := range core.Neighbors6 {
			n := idx.Add(off[0], off[1], off[2])
			if restored[n] || seen[n] || !lat.Contains(n) || lat.Iso(n) > 0 {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// displace pours amount evenly over targets, topping up the ones with room
// until either the liquid or the room runs out.
func displace(lat *lattice.Lattice, targets []lattice.Index, amount float32) (float32, float32) {
	if amount <= lattice.Epsilon {
		return 0, 0
	}
	open := append([]lattice.Index(nil), targets...)
	left := amount
	for left > lattice.Epsilon && len(open) > 0 {
		share := left / float32(len(open))
		next := open[:0]
		for _, idx := range open {
			before := lat.Node(idx).Liquid
			lat.AddLiquid(share, idx)
			after := lat.Node(idx).Liquid
			left -= after - before
			if after < lat.NodeVolume()-lattice.Epsilon {
				next = append(next, idx)
			}
		}
		if len(next) == len(open) {
			break
		}
		open = next
	}
	if left < lattice.Epsilon {
		left = 0
	}
	return amount - left, left
}
