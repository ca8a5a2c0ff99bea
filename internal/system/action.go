package system

import (
	"time"

	"github.com/boxworld/engine/internal/core/ecs"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// Action is a player intent, already decoupled from keys or buttons.
type Action int

const (
	ActionLeft Action = iota
	ActionRight
	ActionUp
	ActionDown
	ActionJump
)

// ActionSource reports which actions are held this tick. The window or a
// headless driver implements it.
type ActionSource interface {
	Held(a Action) bool
}

// ActionSystem turns held actions into the player's velocity. Running is
// blocked by the sensor on that side, and jumping needs ground below and no
// ceiling above. Phase 0 (Input).
type ActionSystem struct {
	st        *Stores
	q         *ecs.Query
	src       ActionSource
	player    func() ecs.EntityID
	runSpeed  float64
	jumpSpeed float64
}

func NewActionSystem(st *Stores, src ActionSource, player func() ecs.EntityID, runSpeed, jumpSpeed float64) *ActionSystem {
	return &ActionSystem{
		st:        st,
		q:         ecs.NewQuery(st.Sensors, st.Movement),
		src:       src,
		player:    player,
		runSpeed:  runSpeed,
		jumpSpeed: jumpSpeed,
	}
}

func (s *ActionSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ActionSystem) Update(_ time.Duration) {
	id := s.player()
	if id.IsZero() || s.src == nil {
		return
	}
	it := s.q.Find(id)
	if !it.Next() || it.Entity() != id {
		return
	}
	sensors := s.st.Sensors.At(it)
	vel := s.st.Movement.At(it).Velocity

	switch {
	case s.src.Held(ActionLeft):
		if !sensors.Left {
			vel.X = -s.runSpeed
		}
	case s.src.Held(ActionRight):
		if !sensors.Right {
			vel.X = s.runSpeed
		}
	default:
		vel.X = 0
	}
	if s.src.Held(ActionJump) && sensors.Bottom && !sensors.Top {
		vel.Y = -s.jumpSpeed
	}

	if vel != s.st.Movement.At(it).Velocity {
		s.st.Movement.MutAt(it).Velocity = vel
	}
}
