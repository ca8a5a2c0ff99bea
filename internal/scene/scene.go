package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
	"github.com/boxworld/engine/internal/core/event"
	coresys "github.com/boxworld/engine/internal/core/system"
	"github.com/boxworld/engine/internal/data"
	"github.com/boxworld/engine/internal/system"
)

const (
	playerDamage   = 1
	playerHardness = 0
	playerPiercing = 0

	killBoxHeight   = 2.0
	killBoxStrength = 999
	boundWidth      = 2.0
)

// ScriptBinder turns a level script reference into a collision handler.
// *scripting.Engine implements it.
type ScriptBinder interface {
	Handler(entity ecs.EntityID, path string, vars map[string]any) (component.CollisionHandler, error)
}

type Options struct {
	Level     *data.Level
	Assets    *data.AssetTable
	Actions   system.ActionSource
	Collision system.CollisionConfig
	Log       *zap.Logger
}

// Handles are the player's asset handles, resolved once when the scene is
// created.
type Handles struct {
	Sheet component.SheetID
	Stand component.EntryID
	Run   component.EntryID
	Fall  component.EntryID
}

// Scene is one playable level: the registry, its systems and the gameplay
// state the scripting host exposes. Single-goroutine access only.
type Scene struct {
	reg    *ecs.Registry
	st     *system.Stores
	bus    *event.Bus
	runner *coresys.Runner
	level  *data.Level
	assets *data.AssetTable
	log    *zap.Logger

	handles   Handles
	player    ecs.EntityID
	milestone int
	coins     int
	loaded    bool
}

// New builds an empty scene for opts.Level and registers its systems. Call
// Load to seed the entities.
func New(opts Options) (*Scene, error) {
	if opts.Level == nil || opts.Assets == nil {
		return nil, errors.New("scene: level and assets are required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	handles, err := resolveHandles(opts.Assets, opts.Level.Player)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", opts.Level.Name, err)
	}

	reg := ecs.NewRegistry()
	s := &Scene{
		reg:     reg,
		st:      system.RegisterComponents(reg, seedCount(opts.Level)),
		bus:     event.NewBus(),
		runner:  coresys.NewRunner(reg),
		level:   opts.Level,
		assets:  opts.Assets,
		log:     opts.Log.With(zap.String("level", opts.Level.Name)),
		handles: handles,
	}
	s.registerSystems(opts)
	return s, nil
}

// seedCount is the number of entities Load creates for l: the player, two
// walls, a kill box per column, every tile and every level entity.
func seedCount(l *data.Level) int {
	n := 1 + 2 + l.Width
	for _, layer := range l.Layers {
		n += len(layer.Tiles) + len(layer.Entities)
	}
	return n
}

func resolveHandles(assets *data.AssetTable, p data.PlayerConfig) (Handles, error) {
	var h Handles
	var err error
	if h.Sheet, err = assets.LookupSheet(p.Spritesheet); err != nil {
		return h, fmt.Errorf("player sheet: %w", err)
	}
	if h.Stand, err = assets.LookupEntry(h.Sheet, p.Stand); err != nil {
		return h, fmt.Errorf("player stand: %w", err)
	}
	if h.Run, err = assets.LookupEntry(h.Sheet, p.Run); err != nil {
		return h, fmt.Errorf("player run: %w", err)
	}
	if h.Fall, err = assets.LookupEntry(h.Sheet, p.Fall); err != nil {
		return h, fmt.Errorf("player fall: %w", err)
	}
	return h, nil
}

func (s *Scene) registerSystems(opts Options) {
	p := s.level.Player
	player := s.Player

	s.runner.Register(system.NewEventDispatchSystem(s.bus))
	s.runner.Register(system.NewActionSystem(s.st, opts.Actions, player, p.RunSpeed, p.JumpSpeed))
	s.runner.Register(system.NewLifetimeSystem(s.reg, s.st))
	s.runner.Register(system.NewGravitySystem(s.st, s.level.Gravity, p.FallSpeed))
	s.runner.Register(system.NewSnapshotSystem(s.st))
	s.runner.Register(system.NewMovementSystem(s.st))
	s.runner.Register(system.NewCollisionSystem(s.st, s.bus, opts.Collision, s.log))
	s.runner.Register(&milestoneSystem{s: s})
	s.runner.Register(system.NewDestructionSystem(s.reg, s.st, s.bus, s, s.log))
	s.runner.Register(&playerAnimationSystem{s: s})
	s.runner.Register(system.NewAnimationSystem(s.reg, s.st, s.assets))
}

// Load seeds the player, the world bounds, the kill boxes under the level,
// every tile collider and every level entity, then commits. scripts may be nil
// when the level has no scripted entities.
func (s *Scene) Load(scripts ScriptBinder) error {
	if s.loaded {
		return fmt.Errorf("scene %q: already loaded", s.level.Name)
	}

	s.milestone = 0
	s.spawnPlayer()
	s.spawnBounds()
	for i := range s.level.Layers {
		if err := s.spawnLayer(i, scripts); err != nil {
			return fmt.Errorf("scene %q: layer %d: %w", s.level.Name, i, err)
		}
	}

	s.reg.FinalizeUpdate()
	s.reg.EndFrame()
	s.loaded = true

	s.log.Info("scene loaded",
		zap.Int("entities", s.reg.Issued()),
		zap.Int("colliders", s.st.AABB.Len()),
		zap.Stringer("player", s.player),
	)
	return nil
}

func (s *Scene) spawnPlayer() {
	p := s.level.Player
	entry, _ := s.assets.Entry(s.handles.Sheet, s.handles.Fall)

	id := s.reg.Entity()
	ecs.Add(s.reg, id, component.Mortal{Health: p.Health})
	ecs.Add(s.reg, id, component.Gravity{})
	ecs.Add(s.reg, id, component.Movement{})
	ecs.Add(s.reg, id, component.Transform{Position: s.milestonePosition(0), Scale: cp.Vector{X: 1, Y: 1}})

	box := component.NewAABB(p.AABB.Width, p.AABB.Height, component.Solid)
	box.Damage, box.Hardness, box.Piercing = playerDamage, playerHardness, playerPiercing
	ecs.Add(s.reg, id, box)

	ecs.Add(s.reg, id, component.Sensors{})
	ecs.Add(s.reg, id, component.ZIndex{Z: p.Layer})
	ecs.Add(s.reg, id, component.NewSprite(s.handles.Sheet, entry.Rect(), 0.5, 0.5))
	ecs.Add(s.reg, id, component.Animation{Sheet: s.handles.Sheet, Entry: s.handles.Fall, Loop: true})
	s.player = id
}

// spawnBounds adds solid walls left and right of the level and a row of
// deadly permeable boxes under it. There is no top boundary.
func (s *Scene) spawnBounds() {
	w, h := s.level.PixelWidth(), s.level.PixelHeight()

	for _, x := range []float64{-boundWidth / 2, w + boundWidth/2} {
		id := s.reg.Entity()
		ecs.Add(s.reg, id, component.NewTransform(x, h/2))
		ecs.Add(s.reg, id, component.NewAABB(boundWidth, h, component.Solid))
	}

	tw := float64(s.level.TileWidth)
	for i := 0; i < s.level.Width; i++ {
		id := s.reg.Entity()
		box := component.NewAABB(tw, killBoxHeight, component.Permeable)
		box.Damage, box.Hardness, box.Piercing = killBoxStrength, killBoxStrength, killBoxStrength
		ecs.Add(s.reg, id, component.NewTransform(float64(i)*tw+tw/2, h+killBoxHeight/2))
		ecs.Add(s.reg, id, box)
	}
}

func (s *Scene) spawnLayer(z int, scripts ScriptBinder) error {
	layer := s.level.Layers[z]

	for _, tile := range layer.Tiles {
		if tile.ID <= 0 {
			continue
		}
		info := layer.Tileset.Tiles[tile.ID-1]
		if info.AABB.Empty() {
			continue
		}
		m := component.Solid
		if info.Passage {
			m = component.Permeable
		}
		box := component.NewAABB(info.AABB.Width, info.AABB.Height, m)
		box.Damage, box.Hardness, box.Piercing = info.Damage, info.Hardness, info.Piercing

		x, y := s.level.TileCentre(tile.X, tile.Y)
		id := s.reg.Entity()
		ecs.Add(s.reg, id, component.NewTransform(x, y))
		ecs.Add(s.reg, id, box)
	}

	for i, cfg := range layer.Entities {
		if err := s.spawnEntity(z, cfg, scripts); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
	}
	return nil
}

func (s *Scene) spawnEntity(z int, cfg data.EntityConfig, scripts ScriptBinder) error {
	sheet, err := s.assets.LookupSheet(cfg.Spritesheet)
	if err != nil {
		return err
	}
	entryID, err := s.assets.LookupEntry(sheet, cfg.Sprite)
	if err != nil {
		return err
	}
	entry, _ := s.assets.Entry(sheet, entryID)

	id := s.reg.Entity()
	x, y := s.level.TileCentre(cfg.X, cfg.Y)
	ecs.Add(s.reg, id, component.NewTransform(x, y))
	if !cfg.AABB.Empty() {
		ecs.Add(s.reg, id, component.NewAABB(cfg.AABB.Width, cfg.AABB.Height, component.Solid))
	}
	ecs.Add(s.reg, id, component.NewSprite(sheet, entry.Rect(), 0.5, 0.5))
	ecs.Add(s.reg, id, component.Animation{Sheet: sheet, Entry: entryID, Loop: true})
	ecs.Add(s.reg, id, component.ZIndex{Z: z})

	var handlers []component.CollisionHandler
	for _, ref := range cfg.Scripts {
		if !hasEvent(ref.Events, data.EventCollide) {
			continue
		}
		if scripts == nil {
			s.log.Warn("no script engine, handler skipped", zap.String("script", ref.Path), zap.Stringer("entity", id))
			continue
		}
		h, err := scripts.Handler(id, ref.Path, ref.Vars)
		if err != nil {
			return fmt.Errorf("script %s: %w", ref.Path, err)
		}
		handlers = append(handlers, h)
		s.log.Debug("collision handler added", zap.String("script", ref.Path), zap.Stringer("entity", id))
	}
	if len(handlers) > 0 {
		ecs.Add(s.reg, id, component.OnCollision{Handlers: handlers})
	}
	return nil
}

func hasEvent(events []string, name string) bool {
	for _, e := range events {
		if e == name {
			return true
		}
	}
	return false
}

// Tick advances the simulation by one fixed step.
func (s *Scene) Tick(dt time.Duration) { s.runner.Tick(dt) }

func (s *Scene) Ticks() uint64 { return s.runner.Ticks() }

// Player returns the player entity, zero before Load.
func (s *Scene) Player() ecs.EntityID { return s.player }

func (s *Scene) Coins() int { return s.coins }

// Milestone is the index of the furthest milestone the player has passed.
func (s *Scene) Milestone() int { return s.milestone }

func (s *Scene) Handles() Handles { return s.handles }

func (s *Scene) Bus() *event.Bus { return s.bus }

func (s *Scene) Stores() *system.Stores { return s.st }

// Registry is part of the scripting host API.
func (s *Scene) Registry() *ecs.Registry { return s.reg }
