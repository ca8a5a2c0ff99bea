package system

import (
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
	"github.com/boxworld/engine/internal/physics"
)

// CollisionConfig tunes the collision pass.
type CollisionConfig struct {
	// BroadPhaseMargin ends the forward scan from a box once the next box's
	// centre is further right than both half widths plus the margin. A box
	// wider than the margin that sorts after a narrow one can be skipped.
	BroadPhaseMargin float64
	// SensorDistance is the half thickness of the edge probes.
	SensorDistance float64
}

// CollisionSystem finds overlapping boxes, runs their collision handlers,
// applies damage, pushes moving solids back to the moment of contact and
// refreshes edge sensors. Phase 3 (Physics).
//
// Pairs are visited in X order. Every read inside the pass goes through the
// in-progress buffer, so a pair sees the resolutions made for earlier pairs.
type CollisionSystem struct {
	st  *Stores
	bus *event.Bus
	log *zap.Logger
	cfg CollisionConfig

	boxes   *ecs.Query // Transform (ordered by X) + AABB
	sensors *ecs.Query // Sensors + Transform + AABB
}

func NewCollisionSystem(st *Stores, bus *event.Bus, cfg CollisionConfig, log *zap.Logger) *CollisionSystem {
	return &CollisionSystem{
		st:      st,
		bus:     bus,
		log:     log,
		cfg:     cfg,
		boxes:   ecs.NewQuery(st.Transform, st.AABB),
		sensors: ecs.NewQuery(st.Sensors, st.Transform, st.AABB),
	}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *CollisionSystem) Update(_ time.Duration) {
	s.measure()
	for it := s.boxes.Iter(); it.Next(); {
		s.scanFrom(it.Entity())
	}
	s.probe()
}

// measure stores each box's displacement over this tick.
func (s *CollisionSystem) measure() {
	for it := s.boxes.Iter(); it.Next(); {
		pos := s.st.Transform.At(it).Position
		box := s.st.AABB.MutAt(it)
		box.Collision = false
		box.PreviousVelocity = pos.Sub(box.PreviousPosition)
	}
}

// body is an entity's collision state read from the in-progress buffers. A
// body whose removal is staged is not ok: it neither collides nor blocks.
type body struct {
	id  ecs.EntityID
	box component.AABB
	tf  component.Transform
	ok  bool
}

func (s *CollisionSystem) body(id ecs.EntityID) body {
	box, okBox := s.st.AABB.Latest(id)
	tf, okTf := s.st.Transform.Latest(id)
	gone := s.st.AABB.Removing(id) || s.st.Transform.Removing(id)
	return body{id: id, box: box, tf: tf, ok: okBox && okTf && !gone}
}

// scanFrom tests id against every box that follows it in X order and is
// close enough to overlap.
func (s *CollisionSystem) scanFrom(id ecs.EntityID) {
	a := s.body(id)
	if !a.ok {
		return
	}
	for it := s.boxes.Find(id); it.Next(); {
		if it.Entity() == id {
			continue
		}
		b := s.body(it.Entity())
		if !b.ok {
			continue
		}
		reach := a.box.HalfSize.X + b.box.HalfSize.X + s.cfg.BroadPhaseMargin
		if b.tf.Position.X > a.tf.Position.X+reach {
			break
		}
		if _, hit := physics.Overlap(a.box.HalfSize, a.tf.Position, b.box.HalfSize, b.tf.Position); !hit {
			continue
		}
		s.collide(a, b)
		// Handlers and resolution may have moved id.
		if a = s.body(id); !a.ok {
			return
		}
	}
}

func (s *CollisionSystem) collide(a, b body) {
	s.st.AABB.Mut(a.id).Collision = true
	s.st.AABB.Mut(b.id).Collision = true
	event.Emit(s.bus, event.Collided{A: a.id, B: b.id})

	s.dispatch(a, b)
	s.dispatch(b, a)

	// Handlers may have mutated either side; work from what they left.
	if a = s.body(a.id); !a.ok {
		return
	}
	if b = s.body(b.id); !b.ok {
		return
	}

	s.damage(a, b)
	s.damage(b, a)

	if a.box.Material == component.Permeable || b.box.Material == component.Permeable {
		return
	}
	s.resolve(a, b)
}

func (s *CollisionSystem) dispatch(self, other body) {
	oc, ok := s.st.OnCollision.TryGet(self.id)
	if !ok {
		return
	}
	evt := component.CollisionEvent{
		Self:           self.id,
		SelfBox:        self.box,
		SelfTransform:  self.tf,
		Other:          other.id,
		OtherBox:       other.box,
		OtherTransform: other.tf,
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("collision handler panicked",
				zap.Stringer("entity", self.id),
				zap.Stringer("other", other.id),
				zap.Any("panic", r),
			)
		}
	}()
	oc.Dispatch(evt)
}

// damage lets a deadly src hurt a mortal dst whose hardness its piercing beats.
func (s *CollisionSystem) damage(src, dst body) {
	if !src.box.Deadly() || src.box.Piercing < dst.box.Hardness {
		return
	}
	if _, ok := s.st.Mortal.Latest(dst.id); !ok {
		return
	}
	m := s.st.Mortal.Mut(dst.id)
	m.Health -= src.box.Damage
	event.Emit(s.bus, event.Damaged{
		Target: dst.id,
		Source: src.id,
		Amount: src.box.Damage,
		Health: m.Health,
	})
}

// resolve moves the moving sides of an overlapping solid pair back along
// their path to the earliest axis contact and stops them on that axis.
func (s *CollisionSystem) resolve(a, b body) {
	depth, hit := physics.Overlap(a.box.HalfSize, a.tf.Position, b.box.HalfSize, b.tf.Position)
	if !hit {
		return
	}
	_, dynA := s.st.Movement.Latest(a.id)
	_, dynB := s.st.Movement.Latest(b.id)
	var va, vb cp.Vector
	if dynA {
		va = a.tf.Position.Sub(a.box.PreviousPosition)
	}
	if dynB {
		vb = b.tf.Position.Sub(b.box.PreviousPosition)
	}
	if va == (cp.Vector{}) && vb == (cp.Vector{}) {
		return
	}

	pa, pb := a.box.PreviousPosition, b.box.PreviousPosition
	tx := physics.ImpactTime(
		physics.ContactDistance(a.box.HalfSize.X, b.box.HalfSize.X, pa.X, pb.X),
		pa.X, pb.X, va.X, vb.X, depth.X)
	ty := physics.ImpactTime(
		physics.ContactDistance(a.box.HalfSize.Y, b.box.HalfSize.Y, pa.Y, pb.Y),
		pa.Y, pb.Y, va.Y, vb.Y, depth.Y)

	if tx < ty {
		s.rewindX(a.id, dynA, pa.X, va.X, tx)
		s.rewindX(b.id, dynB, pb.X, vb.X, tx)
		return
	}
	if ty < 1 {
		s.rewindY(a.id, dynA, pa.Y, va.Y, ty)
		s.rewindY(b.id, dynB, pb.Y, vb.Y, ty)
	}
}

func (s *CollisionSystem) rewindX(id ecs.EntityID, dynamic bool, prev, vel, t float64) {
	if !dynamic || vel == 0 {
		return
	}
	s.st.Transform.Mut(id).Position.X = prev + vel*t
	s.st.Movement.Mut(id).Velocity.X = 0
}

func (s *CollisionSystem) rewindY(id ecs.EntityID, dynamic bool, prev, vel, t float64) {
	if !dynamic || vel == 0 {
		return
	}
	s.st.Transform.Mut(id).Position.Y = prev + vel*t
	s.st.Movement.Mut(id).Velocity.Y = 0
}

// probe sets each sensor-carrying entity's edge flags against every solid box.
func (s *CollisionSystem) probe() {
	for it := s.sensors.Iter(); it.Next(); {
		self := s.body(it.Entity())
		if !self.ok {
			continue
		}
		probes := physics.Probes(self.tf.Position, self.box.HalfSize, s.cfg.SensorDistance)
		var flags component.Sensors
		for ot := s.boxes.Iter(); ot.Next(); {
			if ot.Entity() == self.id {
				continue
			}
			other := s.body(ot.Entity())
			if !other.ok || other.box.Material == component.Permeable {
				continue
			}
			for _, p := range probes {
				if !p.Touches(other.box.HalfSize, other.tf.Position) {
					continue
				}
				switch p.Edge {
				case physics.EdgeLeft:
					flags.Left = true
				case physics.EdgeRight:
					flags.Right = true
				case physics.EdgeTop:
					flags.Top = true
				case physics.EdgeBottom:
					flags.Bottom = true
				}
			}
		}
		if flags != s.st.Sensors.LatestAt(it) {
			*s.st.Sensors.MutAt(it) = flags
		}
	}
}
