package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/jakecoffman/cp"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
)

var ErrUnsupportedScript = errors.New("unsupported script type")

// Engine runs collision scripts. Lua scripts share a single gopher-lua VM;
// Tengo scripts are compiled once per file. Every program is cached by its
// absolute path and handlers look it up on each call, so Reload takes effect
// for entities that already hold a handler.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	dir string
	api api
	log *zap.Logger

	lua       map[string]*lua.LTable
	tengo     map[string]*tengo.Compiled
	tengoHost *tengo.ImmutableMap
}

// NewEngine creates the scripting engine and compiles every script found in
// scriptsDir. A missing directory is not an error.
func NewEngine(scriptsDir string, host Host, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:    vm,
		dir:   scriptsDir,
		api:   api{host: host},
		log:   log,
		lua:   make(map[string]*lua.LTable),
		tengo: make(map[string]*tengo.Compiled),
	}
	vm.PreloadModule("host", e.luaHostLoader)
	e.tengoHost = e.buildTengoHost()

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsScript(entry.Name()) {
			continue
		}
		key, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if err := e.compile(key); err != nil {
			return err
		}
		e.log.Debug("script loaded", zap.String("file", key))
	}
	return nil
}

// IsScript reports whether path has an extension the engine can run.
func IsScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua", ".tengo":
		return true
	}
	return false
}

// Handler binds the script at path to entity. Relative paths are resolved
// against the scripts directory. vars is converted once and kept for the life
// of the handler, so scripts may store per-entity state in it.
func (e *Engine) Handler(entity ecs.EntityID, path string, vars map[string]any) (component.CollisionHandler, error) {
	key, err := filepath.Abs(e.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("resolve script %s: %w", path, err)
	}
	if !IsScript(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScript, path)
	}
	if !e.loaded(key) {
		if err := e.compile(key); err != nil {
			return nil, err
		}
	}
	if vars == nil {
		vars = map[string]any{}
	}

	if isLua(key) {
		return &luaHandler{e: e, entity: entity, path: key, vars: toLua(e.vm, vars)}, nil
	}
	obj, err := tengo.FromInterface(vars)
	if err != nil {
		return nil, fmt.Errorf("script %s vars: %w", path, err)
	}
	return &tengoHandler{e: e, entity: entity, path: key, vars: obj}, nil
}

// Reload recompiles the script at path, a file system path such as the ones
// Watcher reports. On failure the previous program stays in use.
func (e *Engine) Reload(path string) error {
	key, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !IsScript(key) {
		return fmt.Errorf("%w: %s", ErrUnsupportedScript, path)
	}
	if err := e.compile(key); err != nil {
		return err
	}
	e.log.Info("script reloaded", zap.String("file", key))
	return nil
}

// Loaded is the number of compiled scripts.
func (e *Engine) Loaded() int { return len(e.lua) + len(e.tengo) }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.dir, path)
}

func (e *Engine) loaded(key string) bool {
	if isLua(key) {
		_, ok := e.lua[key]
		return ok
	}
	_, ok := e.tengo[key]
	return ok
}

func (e *Engine) compile(key string) error {
	if isLua(key) {
		return e.compileLua(key)
	}
	return e.compileTengo(key)
}

func isLua(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lua"
}

// compileLua runs the file once; it must return a module table holding an
// on_collide function.
func (e *Engine) compileLua(key string) error {
	fn, err := e.vm.LoadFile(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return fmt.Errorf("run %s: %w", key, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	mod, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%s: script must return a module table, got %s", key, ret.Type())
	}
	if _, ok := mod.RawGetString("on_collide").(*lua.LFunction); !ok {
		return fmt.Errorf("%s: module has no on_collide function", key)
	}
	e.lua[key] = mod
	return nil
}

type luaHandler struct {
	e      *Engine
	entity ecs.EntityID
	path   string
	vars   lua.LValue
}

func (h *luaHandler) OnCollide(evt component.CollisionEvent) {
	e := h.e
	mod, ok := e.lua[h.path]
	if !ok {
		return
	}
	fn, ok := mod.RawGetString("on_collide").(*lua.LFunction)
	if !ok {
		return
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, toLua(e.vm, eventFields(evt)), h.vars); err != nil {
		e.log.Error("lua on_collide error",
			zap.String("script", h.path),
			zap.Stringer("entity", h.entity),
			zap.Error(err),
		)
	}
}

func (e *Engine) luaHostLoader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"add_coin": func(L *lua.LState) int {
			e.api.host.AddCoin(L.OptInt(1, 1))
			return 0
		},
		"destroy": func(L *lua.LState) int {
			e.api.host.DestroyEntity(checkEntity(L, 1))
			return 0
		},
		"fragment": func(L *lua.LState) int {
			e.api.host.FragmentEntity(checkEntity(L, 1))
			return 0
		},
		"set_animation": func(L *lua.LState) int {
			err := e.api.host.SetEntityAnimation(checkEntity(L, 1), L.CheckString(2), L.CheckString(3), L.OptBool(4, true))
			if err != nil {
				L.Push(lua.LFalse)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(lua.LTrue)
			return 1
		},
		"position": func(L *lua.LState) int {
			v, ok := e.api.position(checkEntity(L, 1))
			return pushVector(L, v, ok)
		},
		"set_position": func(L *lua.LState) int {
			v := cp.Vector{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))}
			L.Push(lua.LBool(e.api.setPosition(checkEntity(L, 1), v)))
			return 1
		},
		"velocity": func(L *lua.LState) int {
			v, ok := e.api.velocity(checkEntity(L, 1))
			return pushVector(L, v, ok)
		},
		"set_velocity": func(L *lua.LState) int {
			v := cp.Vector{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))}
			L.Push(lua.LBool(e.api.setVelocity(checkEntity(L, 1), v)))
			return 1
		},
		"damage": func(L *lua.LState) int {
			hp, ok := e.api.damage(checkEntity(L, 1), L.OptInt(2, 1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(hp))
			return 1
		},
		"spawn": func(L *lua.LState) int {
			t := L.CheckTable(1)
			id := e.api.spawn(Spawn{
				Position: cp.Vector{X: lNum(t, "x"), Y: lNum(t, "y")},
				Velocity: cp.Vector{X: lNum(t, "vel_x"), Y: lNum(t, "vel_y")},
				Gravity:  lua.LVAsBool(t.RawGetString("gravity")),
				Lifetime: lInt(t, "lifetime"),
			})
			L.Push(lua.LNumber(id))
			return 1
		},
	})
	L.Push(mod)
	return 1
}

func checkEntity(L *lua.LState, n int) ecs.EntityID {
	v := L.CheckNumber(n)
	if v < 1 {
		L.ArgError(n, "entity id expected")
	}
	return ecs.EntityID(v)
}

func pushVector(L *lua.LState, v cp.Vector, ok bool) int {
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v.X))
	L.Push(lua.LNumber(v.Y))
	return 2
}
