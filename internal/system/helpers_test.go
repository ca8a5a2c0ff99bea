package system

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
)

const eps = 1e-9

type testWorld struct {
	reg    *ecs.Registry
	st     *Stores
	bus    *event.Bus
	runner *coresys.Runner
}

func newTestWorld() *testWorld {
	reg := ecs.NewRegistry()
	return &testWorld{
		reg:    reg,
		st:     RegisterComponents(reg, 0),
		bus:    event.NewBus(),
		runner: coresys.NewRunner(reg),
	}
}

// withPhysics registers snapshot, movement and collision with default tuning.
func (w *testWorld) withPhysics() *CollisionSystem {
	c := NewCollisionSystem(w.st, w.bus, CollisionConfig{BroadPhaseMargin: 16, SensorDistance: 1}, zap.NewNop())
	w.runner.Register(NewSnapshotSystem(w.st))
	w.runner.Register(NewMovementSystem(w.st))
	w.runner.Register(c)
	return c
}

type boxSpec struct {
	x, y     float64
	w, h     float64
	material component.Material
	vel      *[2]float64 // nil = static, no Movement
	health   int         // > 0 adds Mortal
	damage   int
	hardness int
	piercing int
	sensors  bool
}

func (w *testWorld) spawn(b boxSpec) ecs.EntityID {
	id := w.reg.Entity()
	ecs.Add(w.reg, id, component.NewTransform(b.x, b.y))
	box := component.NewAABB(b.w, b.h, b.material)
	box.Damage, box.Hardness, box.Piercing = b.damage, b.hardness, b.piercing
	box.PreviousPosition = cp.Vector{X: b.x, Y: b.y}
	ecs.Add(w.reg, id, box)
	if b.vel != nil {
		ecs.Add(w.reg, id, component.Movement{Velocity: cp.Vector{X: b.vel[0], Y: b.vel[1]}})
	}
	if b.health > 0 {
		ecs.Add(w.reg, id, component.Mortal{Health: b.health})
	}
	if b.sensors {
		ecs.Add(w.reg, id, component.Sensors{})
	}
	return id
}

func (w *testWorld) commit() {
	w.reg.FinalizeUpdate()
	w.reg.EndFrame()
}

func vel(x, y float64) *[2]float64 { return &[2]float64{x, y} }

func near(a, b float64) bool { return math.Abs(a-b) <= eps }

func assertNear(t *testing.T, what string, got, want float64) {
	t.Helper()
	if !near(got, want) {
		t.Fatalf("%s: expected %v, got %v", what, want, got)
	}
}
