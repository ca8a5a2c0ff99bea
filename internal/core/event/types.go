package event

import "github.com/boxworld/engine/internal/core/ecs"

// Collided is emitted once per overlapping pair found by the collision pass.
type Collided struct {
	A, B ecs.EntityID
}

// Damaged is emitted each time a deadly box hurts a mortal one.
type Damaged struct {
	Target ecs.EntityID
	Source ecs.EntityID
	Amount int
	Health int // after the hit
}

type Destroyed struct {
	Entity ecs.EntityID
}

type Respawned struct {
	Entity    ecs.EntityID
	Milestone int
}

type CoinsChanged struct {
	Total int
}
