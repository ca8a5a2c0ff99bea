package scene

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	"github.com/boxworld/engine/internal/data"
	"github.com/boxworld/engine/internal/system"
)

const testAssets = `
spritesheets:
  - name: MarioSmall
    entries:
      - {name: Stand, x: 0, y: 0, width: 16, height: 16}
      - {name: Run, x: 16, y: 0, width: 16, height: 16, frames: 3, rate: 4}
      - {name: Jump, x: 80, y: 0, width: 16, height: 16}
  - name: Blocks
    entries:
      - {name: Question, x: 0, y: 16, width: 16, height: 16, frames: 3, rate: 8}
`

const tick = 20 * time.Millisecond

// testLevel is 10x6 tiles of 16px. The player starts above tile (1,3),
// centred at (24,56), and the floor row sits at y=5 with its top at 80.
func testLevel(floor bool) *data.Level {
	lvl := &data.Level{
		Name:       "test",
		Gravity:    0.5,
		Width:      10,
		Height:     6,
		TileWidth:  16,
		TileHeight: 16,
		Player: data.PlayerConfig{
			AABB:        data.Box{Width: 12, Height: 16},
			RunSpeed:    2,
			JumpSpeed:   5,
			FallSpeed:   4,
			Layer:       1,
			Health:      1,
			Spritesheet: "MarioSmall",
			Stand:       "Stand",
			Run:         "Run",
			Fall:        "Jump",
		},
		Milestones: []data.Milestone{{X: 1, Y: 3}, {X: 4, Y: 3}},
		Layers: []data.Layer{{
			Parallax: 1,
			Tileset:  data.Tileset{Tiles: []data.TileType{{AABB: data.Box{Width: 16, Height: 16}}}},
		}},
	}
	if floor {
		for x := 0; x < lvl.Width; x++ {
			lvl.Layers[0].Tiles = append(lvl.Layers[0].Tiles, data.Tile{ID: 1, X: x, Y: 5})
		}
	}
	return lvl
}

type holdKeys map[system.Action]bool

func (h holdKeys) Held(a system.Action) bool { return h[a] }

type binderFunc func(ecs.EntityID, string, map[string]any) (component.CollisionHandler, error)

func (f binderFunc) Handler(id ecs.EntityID, path string, vars map[string]any) (component.CollisionHandler, error) {
	return f(id, path, vars)
}

func newTestScene(t *testing.T, lvl *data.Level, keys holdKeys) *Scene {
	t.Helper()
	assets, err := data.ParseAssetTable([]byte(testAssets))
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	sc, err := New(Options{
		Level:     lvl,
		Assets:    assets,
		Actions:   keys,
		Collision: system.CollisionConfig{BroadPhaseMargin: 16, SensorDistance: 1},
		Log:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sc
}

func (s *Scene) run(n int) {
	for i := 0; i < n; i++ {
		s.Tick(tick)
	}
}

func assertNear(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestNewRejectsUnknownPlayerSprites(t *testing.T) {
	assets, _ := data.ParseAssetTable([]byte(testAssets))
	lvl := testLevel(true)
	lvl.Player.Run = "Sprint"
	_, err := New(Options{Level: lvl, Assets: assets})
	if !errors.Is(err, data.ErrUnknownEntry) {
		t.Fatalf("New error = %v, want ErrUnknownEntry", err)
	}
}

func TestLoadSeedsWorld(t *testing.T) {
	sc := newTestScene(t, testLevel(true), nil)
	if err := sc.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// player + 2 walls + 10 kill boxes + 10 floor tiles
	if got := sc.Stores().AABB.Len(); got != 23 {
		t.Fatalf("AABB count = %d, want 23", got)
	}
	if got := seedCount(testLevel(true)); got != sc.Registry().Issued() {
		t.Errorf("seedCount = %d, issued %d", got, sc.Registry().Issued())
	}
	tf := sc.Stores().Transform.Get(sc.Player())
	if !tf.Position.Equal(cp.Vector{X: 24, Y: 56}) {
		t.Errorf("player at %v, want (24,56)", tf.Position)
	}
	ani := sc.Stores().Animation.Get(sc.Player())
	if ani.Entry != sc.Handles().Fall {
		t.Errorf("player animation = %d, want fall", ani.Entry)
	}

	kills := 0
	sc.Stores().AABB.Each(func(_ ecs.EntityID, b component.AABB) {
		if b.Material == component.Permeable && b.Damage == killBoxStrength {
			kills++
		}
	})
	if kills != 10 {
		t.Errorf("kill boxes = %d, want 10", kills)
	}

	if err := sc.Load(nil); err == nil {
		t.Error("second Load succeeded")
	}
}

func TestPlayerLandsAndStands(t *testing.T) {
	sc := newTestScene(t, testLevel(true), nil)
	if err := sc.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc.run(20)

	id := sc.Player()
	assertNear(t, "player y", sc.Stores().Transform.Get(id).Position.Y, 72)
	if v := sc.Stores().Movement.Get(id).Velocity; v.Y != 0 {
		t.Errorf("vy = %v, want 0", v.Y)
	}
	if s := sc.Stores().Sensors.Get(id); !s.Bottom || s.Top || s.Left || s.Right {
		t.Errorf("sensors = %+v, want bottom only", s)
	}
	if ani := sc.Stores().Animation.Get(id); ani.Entry != sc.Handles().Stand {
		t.Errorf("animation = %d, want stand", ani.Entry)
	}
}

func TestRunningPassesMilestone(t *testing.T) {
	keys := holdKeys{}
	sc := newTestScene(t, testLevel(true), keys)
	if err := sc.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc.run(20)
	if sc.Milestone() != 0 {
		t.Fatalf("milestone = %d before running", sc.Milestone())
	}

	keys[system.ActionRight] = true
	sc.run(30)

	id := sc.Player()
	tf := sc.Stores().Transform.Get(id)
	assertNear(t, "player x", tf.Position.X, 84)
	if sc.Milestone() != 1 {
		t.Errorf("milestone = %d, want 1", sc.Milestone())
	}
	if tf.Scale.X != 1 {
		t.Errorf("scale = %v, want facing right", tf.Scale)
	}
	if ani := sc.Stores().Animation.Get(id); ani.Entry != sc.Handles().Run {
		t.Errorf("animation = %d, want run", ani.Entry)
	}

	keys[system.ActionRight] = false
	keys[system.ActionLeft] = true
	sc.run(2)
	if sc.Stores().Transform.Get(id).Scale.X != -1 {
		t.Error("player does not face left")
	}
}

func TestFallingPlayerRespawns(t *testing.T) {
	sc := newTestScene(t, testLevel(false), nil)
	if err := sc.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	var respawns []event.Respawned
	event.Subscribe(sc.Bus(), func(e event.Respawned) { respawns = append(respawns, e) })

	// The player reaches the kill boxes on tick 12 and respawns at once.
	sc.run(12)
	id := sc.Player()
	if !sc.Registry().Alive(id) {
		t.Fatal("player was removed")
	}
	tf := sc.Stores().Transform.Get(id)
	if !tf.Position.Equal(cp.Vector{X: 24, Y: 56}) {
		t.Errorf("respawned at %v, want (24,56)", tf.Position)
	}
	if v := sc.Stores().Movement.Get(id).Velocity; !v.Equal(cp.Vector{X: 0, Y: -5}) {
		t.Errorf("respawn velocity = %v, want (0,-5)", v)
	}
	if hp := sc.Stores().Mortal.Get(id).Health; hp != 1 {
		t.Errorf("health = %d, want 1", hp)
	}

	sc.run(1)
	if len(respawns) != 1 || respawns[0].Entity != id || respawns[0].Milestone != 0 {
		t.Errorf("respawn events = %+v", respawns)
	}
}

func TestScriptedBlockPaysCoin(t *testing.T) {
	lvl := testLevel(false)
	lvl.Layers[0].Entities = []data.EntityConfig{{
		Spritesheet: "Blocks",
		Sprite:      "Question",
		X:           1,
		Y:           5,
		AABB:        data.Box{Width: 16, Height: 16},
		Scripts: []data.ScriptRef{
			{Path: "coin_block.lua", Events: []string{data.EventCollide}, Vars: map[string]any{"coins": 3}},
			{Path: "ignored.lua", Events: []string{"other"}},
		},
	}}
	sc := newTestScene(t, lvl, nil)

	var bound []string
	binder := binderFunc(func(id ecs.EntityID, path string, vars map[string]any) (component.CollisionHandler, error) {
		bound = append(bound, path)
		coins := vars["coins"].(int)
		return component.HandlerFunc(func(evt component.CollisionEvent) {
			if evt.Other == sc.Player() {
				sc.AddCoin(coins)
			}
		}), nil
	})
	if err := sc.Load(binder); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(bound) != 1 || bound[0] != "coin_block.lua" {
		t.Fatalf("bound scripts = %v, want [coin_block.lua]", bound)
	}

	var totals []int
	event.Subscribe(sc.Bus(), func(e event.CoinsChanged) { totals = append(totals, e.Total) })
	sc.run(30)

	if sc.Coins() != 3 {
		t.Errorf("coins = %d, want 3", sc.Coins())
	}
	if len(totals) != 1 || totals[0] != 3 {
		t.Errorf("coin events = %v, want [3]", totals)
	}
	assertNear(t, "player y", sc.Stores().Transform.Get(sc.Player()).Position.Y, 72)
}

func TestHostFragmentAndAnimation(t *testing.T) {
	lvl := testLevel(true)
	lvl.Layers[0].Entities = []data.EntityConfig{{Spritesheet: "Blocks", Sprite: "Question", X: 3, Y: 2}}
	sc := newTestScene(t, lvl, nil)
	if err := sc.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	block := ecs.EntityID(sc.Registry().Issued())
	reg := sc.Registry()

	before := reg.Issued()
	sc.FragmentEntity(block)
	reg.FinalizeUpdate()
	if reg.Issued() != before+4 {
		t.Fatalf("fragments = %d, want 4", reg.Issued()-before)
	}

	first := ecs.EntityID(before + 1)
	if lt := sc.Stores().Lifetime.Get(first); lt.Frames != 60 {
		t.Errorf("fragment lifetime = %d, want 60", lt.Frames)
	}
	if !sc.Stores().Gravity.Has(first) {
		t.Error("fragment has no gravity")
	}
	v := sc.Stores().Movement.Get(first).Velocity
	assertNear(t, "fragment vx", v.X, -0.4)
	assertNear(t, "fragment vy", v.Y, -0.7)
	p := sc.Stores().Transform.Get(first).Position
	assertNear(t, "fragment x", p.X, 56-4)
	assertNear(t, "fragment y", p.Y, 40-4)
	if src := sc.Stores().Sprite.Get(first).Source; src != (component.Rect{X: 0, Y: 16, W: 8, H: 8}) {
		t.Errorf("fragment source = %+v", src)
	}

	if err := sc.SetEntityAnimation(block, "Nope", "Question", true); !errors.Is(err, data.ErrUnknownSheet) {
		t.Errorf("unknown sheet error = %v", err)
	}
	wall := ecs.EntityID(2)
	if err := sc.SetEntityAnimation(wall, "Blocks", "Question", true); !errors.Is(err, ErrNotAnimated) {
		t.Errorf("wall animation error = %v, want ErrNotAnimated", err)
	}
	if err := sc.SetEntityAnimation(block, "Blocks", "Question", false); err != nil {
		t.Fatalf("SetEntityAnimation: %v", err)
	}
	reg.FinalizeUpdate()
	if ani := sc.Stores().Animation.Get(block); ani.Loop || ani.CurrentFrame != 0 {
		t.Errorf("animation = %+v, want restarted without loop", ani)
	}

	sc.DestroyEntity(block)
	reg.FinalizeUpdate()
	if reg.Alive(block) {
		t.Error("block still alive after DestroyEntity")
	}
}
