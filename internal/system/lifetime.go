package system

import (
	"time"

	"github.com/boxworld/engine/internal/core/ecs"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// LifetimeSystem counts down LimitedLifetime and removes expired entities.
// Phase 1 (PreUpdate).
type LifetimeSystem struct {
	reg *ecs.Registry
	st  *Stores
	q   *ecs.Query
}

func NewLifetimeSystem(reg *ecs.Registry, st *Stores) *LifetimeSystem {
	return &LifetimeSystem{reg: reg, st: st, q: ecs.NewQuery(st.Lifetime)}
}

func (s *LifetimeSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *LifetimeSystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		l := s.st.Lifetime.MutAt(it)
		l.Frames--
		if l.Frames <= 0 {
			s.reg.RemoveAll(it.Entity())
		}
	}
}
