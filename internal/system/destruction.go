package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// Respawner gets the first say over a dead entity. Returning true keeps the
// entity alive.
type Respawner interface {
	Respawn(id ecs.EntityID) bool
}

// DestructionSystem removes mortals whose health ran out. Phase 4 (PostUpdate).
type DestructionSystem struct {
	reg       *ecs.Registry
	st        *Stores
	bus       *event.Bus
	respawner Respawner
	log       *zap.Logger
	q         *ecs.Query
}

func NewDestructionSystem(reg *ecs.Registry, st *Stores, bus *event.Bus, respawner Respawner, log *zap.Logger) *DestructionSystem {
	return &DestructionSystem{
		reg:       reg,
		st:        st,
		bus:       bus,
		respawner: respawner,
		log:       log,
		q:         ecs.NewQuery(st.Mortal),
	}
}

func (s *DestructionSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DestructionSystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		if s.st.Mortal.At(it).Health > 0 {
			continue
		}
		id := it.Entity()
		if s.st.Mortal.Removing(id) {
			continue
		}
		if s.respawner != nil && s.respawner.Respawn(id) {
			continue
		}
		s.reg.RemoveAll(id)
		event.Emit(s.bus, event.Destroyed{Entity: id})
		s.log.Debug("entity destroyed", zap.Stringer("entity", id))
	}
}
