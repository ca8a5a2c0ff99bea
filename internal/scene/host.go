package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
)

const (
	fragmentCount    = 4
	fragmentLifetime = 60
	fragmentSpeed    = 0.1
	fragmentLift     = 0.3
)

var ErrNotAnimated = errors.New("entity has no sprite animation")

// AddCoin adds n to the coin counter.
func (s *Scene) AddCoin(n int) {
	s.coins += n
	event.Emit(s.bus, event.CoinsChanged{Total: s.coins})
}

func (s *Scene) DestroyEntity(id ecs.EntityID) {
	s.reg.RemoveAll(id)
	event.Emit(s.bus, event.Destroyed{Entity: id})
}

// FragmentEntity spawns pieces of id's current sprite that fly apart, fall
// and expire. The entity itself is left alone.
func (s *Scene) FragmentEntity(id ecs.EntityID) {
	tf, ok1 := s.st.Transform.Latest(id)
	sp, ok2 := s.st.Sprite.Latest(id)
	ani, ok3 := s.st.Animation.Latest(id)
	if !ok1 || !ok2 || !ok3 {
		s.log.Warn("fragment: entity has no sprite", zap.Stringer("entity", id))
		return
	}
	z, _ := s.st.ZIndex.Latest(id)

	divider := fragmentCount / 2
	sizeX, sizeY := sp.Source.W/float64(divider), sp.Source.H/float64(divider)
	halfW, halfH := sizeX/2, sizeY/2
	texHalfW, texHalfH := sp.Source.W/2, sp.Source.H/2

	for row := 0; row < divider; row++ {
		y := -texHalfH + float64(row)*sizeY
		for col := 0; col < divider; col++ {
			x := -texHalfW + float64(col)*sizeX

			piece := s.reg.Entity()
			pt := component.NewTransform(tf.Position.X+x+halfW, tf.Position.Y+y+halfH)
			ecs.Add(s.reg, piece, pt)
			ecs.Add(s.reg, piece, component.Gravity{})
			ecs.Add(s.reg, piece, component.LimitedLifetime{Frames: fragmentLifetime})

			var mv component.Movement
			mv.Velocity.X = (x + halfW) * fragmentSpeed
			mv.Velocity.Y = (y+halfH)*fragmentSpeed - fragmentLift
			ecs.Add(s.reg, piece, mv)

			src := component.Rect{
				X: sp.Source.X + x + texHalfW,
				Y: sp.Source.Y + y + texHalfH,
				W: sizeX,
				H: sizeY,
			}
			ecs.Add(s.reg, piece, component.NewSprite(sp.Sheet, src, 0.5, 0.5))
			ecs.Add(s.reg, piece, ani)
			ecs.Add(s.reg, piece, z)
		}
	}
}

// SetEntityAnimation switches id to the named entry and restarts it.
func (s *Scene) SetEntityAnimation(id ecs.EntityID, sheet, entry string, loop bool) error {
	sheetID, err := s.assets.LookupSheet(sheet)
	if err != nil {
		return err
	}
	entryID, err := s.assets.LookupEntry(sheetID, entry)
	if err != nil {
		return err
	}
	if !s.setAnimation(id, sheetID, entryID, loop) {
		return fmt.Errorf("%w: %s", ErrNotAnimated, id)
	}
	return nil
}

func (s *Scene) setAnimation(id ecs.EntityID, sheet component.SheetID, entry component.EntryID, loop bool) bool {
	_, hasSprite := s.st.Sprite.Latest(id)
	_, hasAnim := s.st.Animation.Latest(id)
	if !hasSprite || !hasAnim {
		return false
	}
	meta, ok := s.assets.Entry(sheet, entry)
	if !ok {
		return false
	}

	*s.st.Sprite.Mut(id) = component.NewSprite(sheet, meta.Rect(), 0.5, 0.5)
	*s.st.Animation.Mut(id) = component.Animation{Sheet: sheet, Entry: entry, Loop: loop}
	return true
}
