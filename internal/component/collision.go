package component

import (
	"github.com/jakecoffman/cp"

	"github.com/boxworld/engine/internal/core/ecs"
)

// Material decides whether a box blocks movement.
type Material int

const (
	Permeable Material = iota // overlaps are reported but never resolved
	Solid
)

func (m Material) String() string {
	if m == Solid {
		return "solid"
	}
	return "permeable"
}

// AABB is an axis-aligned collision box centred on the entity's Transform.
type AABB struct {
	Size     cp.Vector
	HalfSize cp.Vector
	Material Material

	Damage   int // applied to overlapping mortals every tick
	Hardness int // damage only lands when the source's Piercing >= Hardness
	Piercing int

	PreviousPosition cp.Vector // position before this tick's movement
	PreviousVelocity cp.Vector // displacement over this tick
	Collision        bool      // overlapped something this tick
}

func NewAABB(w, h float64, m Material) AABB {
	return AABB{
		Size:     cp.Vector{X: w, Y: h},
		HalfSize: cp.Vector{X: w / 2, Y: h / 2},
		Material: m,
	}
}

// Deadly reports whether the box hurts mortals it overlaps.
func (b AABB) Deadly() bool { return b.Damage > 0 }

// Sensors flag which edges of an entity's box touch a solid neighbour.
type Sensors struct {
	Left, Right, Top, Bottom bool
}

// Mortal entities are destroyed (or respawned) once Health drops to zero.
type Mortal struct {
	Health int
}

// CollisionEvent is what a collision handler sees. The records are copies
// taken when the pair was found; handlers change the world only through the
// registry or the scripting host.
type CollisionEvent struct {
	Self           ecs.EntityID
	SelfBox        AABB
	SelfTransform  Transform
	Other          ecs.EntityID
	OtherBox       AABB
	OtherTransform Transform
}

// CollisionHandler reacts to an overlap involving its entity.
type CollisionHandler interface {
	OnCollide(evt CollisionEvent)
}

// HandlerFunc adapts a plain function to CollisionHandler.
type HandlerFunc func(CollisionEvent)

func (f HandlerFunc) OnCollide(evt CollisionEvent) { f(evt) }

// OnCollision attaches collision handlers to an entity. Handlers run in order.
type OnCollision struct {
	Handlers []CollisionHandler
}

func (o OnCollision) Dispatch(evt CollisionEvent) {
	for _, h := range o.Handlers {
		h.OnCollide(evt)
	}
}
