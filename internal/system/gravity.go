package system

import (
	"math"
	"time"

	"github.com/boxworld/engine/internal/core/ecs"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// GravitySystem accelerates falling entities up to a terminal speed and stops
// the fall of grounded ones. Entities without Sensors are never grounded.
// Phase 1 (PreUpdate).
type GravitySystem struct {
	st        *Stores
	q         *ecs.Query
	gravity   float64
	fallSpeed float64
}

func NewGravitySystem(st *Stores, gravity, fallSpeed float64) *GravitySystem {
	q := ecs.NewQuery(st.Gravity, st.Movement, st.Sensors).Optional(st.Sensors)
	return &GravitySystem{st: st, q: q, gravity: gravity, fallSpeed: fallSpeed}
}

func (s *GravitySystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *GravitySystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		vy := s.st.Movement.At(it).Velocity.Y
		grounded := s.st.Sensors.In(it) && s.st.Sensors.At(it).Bottom
		switch {
		case !grounded && vy < s.fallSpeed:
			s.st.Movement.MutAt(it).Velocity.Y = math.Min(s.fallSpeed, vy+s.gravity)
		case grounded && vy > 0:
			s.st.Movement.MutAt(it).Velocity.Y = 0
		}
	}
}
