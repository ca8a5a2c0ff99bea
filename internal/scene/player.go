package scene

import (
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
	"github.com/boxworld/engine/internal/system"
)

var _ system.Respawner = (*Scene)(nil)

func (s *Scene) milestonePosition(i int) cp.Vector {
	m := s.level.Milestones[i]
	x, y := s.level.TileCentre(m.X, m.Y)
	return cp.Vector{X: x, Y: y}
}

// Respawn brings a dead player back at the last milestone it reached, moving
// upward. Every other entity is left to the destruction system.
func (s *Scene) Respawn(id ecs.EntityID) bool {
	if id != s.player {
		return false
	}
	p := s.level.Player

	s.st.Mortal.Mut(id).Health = p.Health
	s.st.Movement.Mut(id).Velocity = cp.Vector{X: 0, Y: -p.JumpSpeed}
	s.st.Transform.Mut(id).Position = s.milestonePosition(s.milestone)

	event.Emit(s.bus, event.Respawned{Entity: id, Milestone: s.milestone})
	s.log.Info("player respawned", zap.Int("milestone", s.milestone))
	return true
}

// milestoneSystem advances the respawn point once the player is right of the
// next milestone. Phase 4 (PostUpdate), before destruction.
type milestoneSystem struct {
	s *Scene
}

func (m *milestoneSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (m *milestoneSystem) Update(_ time.Duration) {
	s := m.s
	tf, ok := s.st.Transform.TryGet(s.player)
	if !ok {
		return
	}
	tw := float64(s.level.TileWidth)
	for i := s.milestone; i < len(s.level.Milestones); i++ {
		if tf.Position.X <= float64(s.level.Milestones[i].X)*tw {
			break
		}
		if i != s.milestone {
			s.log.Debug("milestone reached", zap.Int("milestone", i))
		}
		s.milestone = i
	}
}

// playerAnimationSystem picks fall, run or stand from the player's velocity
// and faces the sprite along its horizontal motion. Phase 4 (PostUpdate).
type playerAnimationSystem struct {
	s *Scene
}

func (p *playerAnimationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (p *playerAnimationSystem) Update(_ time.Duration) {
	s := p.s
	id := s.player
	mv, ok := s.st.Movement.TryGet(id)
	if !ok {
		return
	}
	tf, ok := s.st.Transform.Latest(id)
	if !ok {
		return
	}

	switch {
	case mv.Velocity.X < 0 && tf.Scale.X != -1:
		s.st.Transform.Mut(id).Scale = cp.Vector{X: -1, Y: 1}
	case mv.Velocity.X > 0 && tf.Scale.X != 1:
		s.st.Transform.Mut(id).Scale = cp.Vector{X: 1, Y: 1}
	}

	want := s.handles.Stand
	switch {
	case mv.Velocity.Y != 0:
		want = s.handles.Fall
	case mv.Velocity.X != 0:
		want = s.handles.Run
	}

	ani, ok := s.st.Animation.Latest(id)
	if !ok || (ani.Sheet == s.handles.Sheet && ani.Entry == want) {
		return
	}
	s.setAnimation(id, s.handles.Sheet, want, true)
}
