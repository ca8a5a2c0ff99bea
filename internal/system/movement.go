package system

import (
	"time"

	"github.com/boxworld/engine/internal/core/ecs"
	coresys "github.com/boxworld/engine/internal/core/system"
)

// SnapshotSystem records every box's position before movement and clears its
// collision flag. Phase 1 (PreUpdate), after gravity.
type SnapshotSystem struct {
	st *Stores
	q  *ecs.Query
}

func NewSnapshotSystem(st *Stores) *SnapshotSystem {
	return &SnapshotSystem{st: st, q: ecs.NewQuery(st.AABB, st.Transform)}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *SnapshotSystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		box := s.st.AABB.MutAt(it)
		box.PreviousPosition = s.st.Transform.At(it).Position
		box.Collision = false
	}
}

// MovementSystem integrates velocity into position. Phase 2 (Update).
type MovementSystem struct {
	st *Stores
	q  *ecs.Query
}

func NewMovementSystem(st *Stores) *MovementSystem {
	return &MovementSystem{st: st, q: ecs.NewQuery(st.Movement, st.Transform)}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		v := s.st.Movement.At(it).Velocity
		if v.X == 0 && v.Y == 0 {
			continue
		}
		t := s.st.Transform.MutAt(it)
		t.Position = t.Position.Add(v)
	}
}
