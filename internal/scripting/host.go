package scripting

import (
	"github.com/jakecoffman/cp"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
)

// Host is the game side of the scripting API. The scene implements it; the
// engine builds the remaining host calls on top of Registry().
type Host interface {
	AddCoin(n int)
	DestroyEntity(id ecs.EntityID)
	FragmentEntity(id ecs.EntityID)
	SetEntityAnimation(id ecs.EntityID, sheet, entry string, loop bool) error
	Registry() *ecs.Registry
}

// Spawn describes an entity created from a script.
type Spawn struct {
	Position cp.Vector
	Velocity cp.Vector
	Gravity  bool
	Lifetime int // frames, 0 means unlimited
}

// api implements the host calls shared by both backends. Reads see the
// in-progress state so a script observes its own writes within a handler.
type api struct {
	host Host
}

func (a api) position(id ecs.EntityID) (cp.Vector, bool) {
	tf, ok := ecs.StoreOf[component.Transform](a.host.Registry()).Latest(id)
	return tf.Position, ok
}

func (a api) setPosition(id ecs.EntityID, p cp.Vector) bool {
	s := ecs.StoreOf[component.Transform](a.host.Registry())
	if _, ok := s.Latest(id); !ok {
		return false
	}
	s.Mut(id).Position = p
	return true
}

func (a api) velocity(id ecs.EntityID) (cp.Vector, bool) {
	mv, ok := ecs.StoreOf[component.Movement](a.host.Registry()).Latest(id)
	return mv.Velocity, ok
}

func (a api) setVelocity(id ecs.EntityID, v cp.Vector) bool {
	s := ecs.StoreOf[component.Movement](a.host.Registry())
	if _, ok := s.Latest(id); !ok {
		return false
	}
	s.Mut(id).Velocity = v
	return true
}

// damage lowers the health of a mortal entity and returns what is left.
func (a api) damage(id ecs.EntityID, n int) (int, bool) {
	s := ecs.StoreOf[component.Mortal](a.host.Registry())
	if _, ok := s.Latest(id); !ok {
		return 0, false
	}
	m := s.Mut(id)
	m.Health -= n
	return m.Health, true
}

func (a api) spawn(sp Spawn) ecs.EntityID {
	reg := a.host.Registry()
	id := reg.Entity()
	ecs.Add(reg, id, component.Transform{Position: sp.Position, Scale: cp.Vector{X: 1, Y: 1}})
	ecs.Add(reg, id, component.Movement{Velocity: sp.Velocity})
	if sp.Gravity {
		ecs.Add(reg, id, component.Gravity{})
	}
	if sp.Lifetime > 0 {
		ecs.Add(reg, id, component.LimitedLifetime{Frames: sp.Lifetime})
	}
	return id
}
