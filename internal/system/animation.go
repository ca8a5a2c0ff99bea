package system

import (
	"time"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	coresys "github.com/boxworld/engine/internal/core/system"
	"github.com/boxworld/engine/internal/data"
)

// FrameSource resolves animation handles to frame metadata.
type FrameSource interface {
	Entry(sheet component.SheetID, entry component.EntryID) (data.SpriteEntry, bool)
}

// AnimationSystem advances animation counters and points each sprite at its
// current frame. A non-looping animation holds its last frame, or removes the
// entity when DestroyAfter is set. Phase 4 (PostUpdate).
type AnimationSystem struct {
	reg    *ecs.Registry
	st     *Stores
	frames FrameSource
	q      *ecs.Query
}

func NewAnimationSystem(reg *ecs.Registry, st *Stores, frames FrameSource) *AnimationSystem {
	return &AnimationSystem{
		reg:    reg,
		st:     st,
		frames: frames,
		q:      ecs.NewQuery(st.Animation, st.Sprite),
	}
}

func (s *AnimationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AnimationSystem) Update(_ time.Duration) {
	for it := s.q.Iter(); it.Next(); {
		cur := s.st.Animation.LatestAt(it)
		entry, ok := s.frames.Entry(cur.Sheet, cur.Entry)
		if !ok || !entry.Animated() {
			continue
		}
		rate := max(entry.Rate, 1)
		prev := min(cur.CurrentFrame/rate, entry.Frames-1)

		ani := s.st.Animation.MutAt(it)
		ani.CurrentFrame++
		frame := ani.CurrentFrame / rate
		if frame >= entry.Frames {
			switch {
			case ani.Loop:
				ani.CurrentFrame, frame = 0, 0
			case ani.DestroyAfter:
				s.reg.RemoveAll(it.Entity())
				continue
			default:
				ani.CurrentFrame--
				frame = entry.Frames - 1
			}
		}
		if frame == prev {
			continue
		}

		// Shift rather than overwrite so fragments keep their sub-rectangle.
		delta := entry.FrameRect(frame).X - entry.FrameRect(prev).X
		s.st.Sprite.MutAt(it).Source.X += delta
	}
}
