package system

import "time"

// Phase defines execution ordering within a single tick. The registry is
// committed after every phase, so a phase observes everything the previous
// phases staged or wrote.
type Phase int

const (
	PhaseInput      Phase = iota // 0: events from last tick, player actions
	PhasePreUpdate               // 1: lifetime, gravity, physics snapshot
	PhaseUpdate                  // 2: movement
	PhasePhysics                 // 3: collision detection + resolution, sensors
	PhasePostUpdate              // 4: destruction, animation
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePhysics:
		return "physics"
	case PhasePostUpdate:
		return "post-update"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
