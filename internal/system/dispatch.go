package system

import (
	"time"

	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// EventDispatchSystem delivers last tick's events at the start of this one.
// Register it before any other Input system. Phase 0 (Input).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
