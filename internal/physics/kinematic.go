package physics

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"rubble/internal/core"
)

// ErrDuplicateBody is returned when a dynamic body ID is registered twice.
var ErrDuplicateBody = errors.New("duplicate body")

// Probe reports whether a world point is inside something a falling body
// cannot enter.
type Probe func(p mgl32.Vec3) bool

// KinematicConfig tunes the kinematic engine.
type KinematicConfig struct {
	Gravity   float32 // m/s^2, negative is down
	MaxFall   float32
	Damping   float32 // per-step velocity multiplier
	RestSpeed float32 // displacement per second under which a step is quiet
	RestSteps int     // consecutive quiet steps before a body is at rest

	Logger *slog.Logger
}

// DefaultKinematicConfig returns Earth-like gravity with light damping.
func DefaultKinematicConfig() KinematicConfig {
	return KinematicConfig{
		Gravity:   -9.8,
		MaxFall:   20,
		Damping:   0.98,
		RestSpeed: 0.05,
		RestSteps: 8,
	}
}

type body struct {
	desc   Descriptor
	pos    mgl32.Vec3
	vel    mgl32.Vec3
	lo, hi mgl32.Vec3 // local mesh bounds
	quiet  int
	rest   bool
}

// Kinematic drops debris as translating axis-aligned boxes until they land
// on something the probe reports as solid. Rotation is not simulated.
type Kinematic struct {
	cfg     KinematicConfig
	probe   Probe
	log     *slog.Logger
	statics map[string]Descriptor
	bodies  map[uuid.UUID]*body
	order   []uuid.UUID
}

// NewKinematic returns an engine that collides against probe.
func NewKinematic(cfg KinematicConfig, probe Probe) *Kinematic {
	if cfg.RestSteps <= 0 {
		cfg.RestSteps = DefaultKinematicConfig().RestSteps
	}
	if cfg.Damping <= 0 || cfg.Damping > 1 {
		cfg.Damping = 1
	}
	return &Kinematic{
		cfg:     cfg,
		probe:   probe,
		log:     core.Logger(cfg.Logger),
		statics: map[string]Descriptor{},
		bodies:  map[uuid.UUID]*body{},
	}
}

// SetStatic records a static shape.
func (k *Kinematic) SetStatic(key string, d Descriptor) { k.statics[key] = d }

// RemoveStatic forgets a static shape.
func (k *Kinematic) RemoveStatic(key string) { delete(k.statics, key) }

// Statics returns the number of static shapes.
func (k *Kinematic) Statics() int { return len(k.statics) }

// AddDynamic registers a falling body.
func (k *Kinematic) AddDynamic(d Descriptor) error {
	if _, ok := k.bodies[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, d.ID)
	}
	if d.Mesh.Empty() {
		return fmt.Errorf("body %s has no shape", d.ID)
	}
	lo, hi := d.Mesh.Bounds()
	k.bodies[d.ID] = &body{desc: d, pos: d.Transform.Col(3).Vec3(), lo: lo, hi: hi}
	k.order = append(k.order, d.ID)
	return nil
}

// RemoveDynamic drops a body.
func (k *Kinematic) RemoveDynamic(id uuid.UUID) {
	if _, ok := k.bodies[id]; !ok {
		return
	}
	delete(k.bodies, id)
	for i, o := range k.order {
		if o == id {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
}

// Bodies returns the number of dynamic bodies.
func (k *Kinematic) Bodies() int { return len(k.bodies) }

// Transform returns a body's current transform.
func (k *Kinematic) Transform(id uuid.UUID) (mgl32.Mat4, bool) {
	b, ok := k.bodies[id]
	if !ok {
		return mgl32.Ident4(), false
	}
	return mgl32.Translate3D(b.pos.X(), b.pos.Y(), b.pos.Z()), true
}

// Step advances every moving body and reports each one's pose. A body is
// reported with AtRest set on the step it comes to rest and on every step
// after until it is removed.
func (k *Kinematic) Step(dt float32) []Update {
	if dt <= 0 {
		return nil
	}
	out := make([]Update, 0, len(k.order))
	for _, id := range k.order {
		b := k.bodies[id]
		if !b.rest {
			k.advance(b, dt)
		}
		out = append(out, Update{
			ID:        id,
			Transform: mgl32.Translate3D(b.pos.X(), b.pos.Y(), b.pos.Z()),
			AtRest:    b.rest,
		})
	}
	return out
}

func (k *Kinematic) advance(b *body, dt float32) {
	b.vel[1] += k.cfg.Gravity * dt
	if k.cfg.MaxFall > 0 && b.vel[1] < -k.cfg.MaxFall {
		b.vel[1] = -k.cfg.MaxFall
	}
	b.vel = b.vel.Mul(k.cfg.Damping)

	prev := b.pos
	next := b.pos.Add(b.vel.Mul(dt))
	if k.blocked(b, next) {
		bounce := -b.vel[1] * b.desc.Restitution
		b.vel = mgl32.Vec3{b.vel[0] * (1 - b.desc.Friction), 0, b.vel[2] * (1 - b.desc.Friction)}
		if bounce > k.cfg.RestSpeed {
			b.vel[1] = bounce
		}
		horiz := mgl32.Vec3{next[0], b.pos[1], next[2]}
		if !k.blocked(b, horiz) {
			b.pos = horiz
		}
	} else {
		b.pos = next
	}

	if b.pos.Sub(prev).Len() <= k.cfg.RestSpeed*dt {
		b.quiet++
	} else {
		b.quiet = 0
	}
	if b.quiet >= k.cfg.RestSteps {
		b.rest = true
		b.vel = mgl32.Vec3{}
		k.log.Debug("body at rest", "id", b.desc.ID, "pos", b.pos)
	}
}

// blocked samples the body's footprint at pos, or the bottom face of its
// box when it has none.
func (k *Kinematic) blocked(b *body, pos mgl32.Vec3) bool {
	if k.probe == nil {
		return false
	}
	if len(b.desc.Footprint) > 0 {
		for _, p := range b.desc.Footprint {
			if k.probe(pos.Add(p)) {
				return true
			}
		}
		return false
	}
	y := pos.Y() + b.lo.Y()
	xs := [3]float32{b.lo.X(), (b.lo.X() + b.hi.X()) / 2, b.hi.X()}
	zs := [3]float32{b.lo.Z(), (b.lo.Z() + b.hi.Z()) / 2, b.hi.Z()}
	for _, x := range xs {
		for _, z := range zs {
			if k.probe(mgl32.Vec3{pos.X() + x, y, pos.Z() + z}) {
				return true
			}
		}
	}
	return false
}
