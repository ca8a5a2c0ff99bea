package scripting

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
)

// Appended to every Tengo script. The top level of the script runs on every
// call, so scripts should only define functions there.
const tengoDispatch = `
if __evt != undefined {
	on_collide(__evt, __vars, __host)
}
`

func (e *Engine) compileTengo(key string) error {
	src, err := os.ReadFile(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	script := tengo.NewScript(append(src, tengoDispatch...))
	_ = script.Add("__evt", nil)
	_ = script.Add("__vars", map[string]any{})
	_ = script.Add("__host", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("compile %s: %w", key, err)
	}
	e.tengo[key] = compiled
	return nil
}

type tengoHandler struct {
	e      *Engine
	entity ecs.EntityID
	path   string
	vars   tengo.Object
}

func (h *tengoHandler) OnCollide(evt component.CollisionEvent) {
	e := h.e
	compiled, ok := e.tengo[h.path]
	if !ok {
		return
	}
	if err := h.run(compiled, evt); err != nil {
		e.log.Error("tengo on_collide error",
			zap.String("script", h.path),
			zap.Stringer("entity", h.entity),
			zap.Error(err),
		)
	}
}

func (h *tengoHandler) run(compiled *tengo.Compiled, evt component.CollisionEvent) error {
	if err := compiled.Set("__evt", eventFields(evt)); err != nil {
		return err
	}
	if err := compiled.Set("__vars", h.vars); err != nil {
		return err
	}
	if err := compiled.Set("__host", h.e.tengoHost); err != nil {
		return err
	}
	return compiled.Run()
}

func (e *Engine) buildTengoHost() *tengo.ImmutableMap {
	fn := func(name string, f tengo.CallableFunc) tengo.Object {
		return &tengo.UserFunction{Name: name, Value: f}
	}
	values := map[string]tengo.Object{}

	values["add_coin"] = fn("add_coin", func(args ...tengo.Object) (tengo.Object, error) {
		n := 1
		if len(args) > 0 {
			v, ok := tengo.ToInt(args[0])
			if !ok {
				return nil, argType("n", "int", args[0])
			}
			n = v
		}
		e.api.host.AddCoin(n)
		return tengo.UndefinedValue, nil
	})

	values["destroy"] = fn("destroy", func(args ...tengo.Object) (tengo.Object, error) {
		id, err := entityArg(args, 1)
		if err != nil {
			return nil, err
		}
		e.api.host.DestroyEntity(id)
		return tengo.UndefinedValue, nil
	})

	values["fragment"] = fn("fragment", func(args ...tengo.Object) (tengo.Object, error) {
		id, err := entityArg(args, 1)
		if err != nil {
			return nil, err
		}
		e.api.host.FragmentEntity(id)
		return tengo.UndefinedValue, nil
	})

	values["set_animation"] = fn("set_animation", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 || len(args) > 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		id, err := entityArg(args[:1], 1)
		if err != nil {
			return nil, err
		}
		sheet, ok := tengo.ToString(args[1])
		if !ok {
			return nil, argType("sheet", "string", args[1])
		}
		entry, ok := tengo.ToString(args[2])
		if !ok {
			return nil, argType("entry", "string", args[2])
		}
		loop := true
		if len(args) == 4 {
			loop = !args[3].IsFalsy()
		}
		if err := e.api.host.SetEntityAnimation(id, sheet, entry, loop); err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		return tengo.TrueValue, nil
	})

	values["position"] = fn("position", func(args ...tengo.Object) (tengo.Object, error) {
		id, err := entityArg(args, 1)
		if err != nil {
			return nil, err
		}
		return vectorObject(e.api.position(id)), nil
	})

	values["set_position"] = fn("set_position", func(args ...tengo.Object) (tengo.Object, error) {
		id, v, err := entityVectorArgs(args)
		if err != nil {
			return nil, err
		}
		return boolObject(e.api.setPosition(id, v)), nil
	})

	values["velocity"] = fn("velocity", func(args ...tengo.Object) (tengo.Object, error) {
		id, err := entityArg(args, 1)
		if err != nil {
			return nil, err
		}
		return vectorObject(e.api.velocity(id)), nil
	})

	values["set_velocity"] = fn("set_velocity", func(args ...tengo.Object) (tengo.Object, error) {
		id, v, err := entityVectorArgs(args)
		if err != nil {
			return nil, err
		}
		return boolObject(e.api.setVelocity(id, v)), nil
	})

	values["damage"] = fn("damage", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		id, err := entityArg(args[:1], 1)
		if err != nil {
			return nil, err
		}
		n, ok := tengo.ToInt(args[1])
		if !ok {
			return nil, argType("n", "int", args[1])
		}
		hp, ok := e.api.damage(id, n)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Int{Value: int64(hp)}, nil
	})

	values["spawn"] = fn("spawn", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		m, ok := args[0].(*tengo.Map)
		if !ok {
			return nil, argType("spec", "map", args[0])
		}
		num := func(k string) float64 {
			v, _ := tengo.ToFloat64(mapValue(m, k))
			return v
		}
		lifetime, _ := tengo.ToInt(mapValue(m, "lifetime"))
		id := e.api.spawn(Spawn{
			Position: cp.Vector{X: num("x"), Y: num("y")},
			Velocity: cp.Vector{X: num("vel_x"), Y: num("vel_y")},
			Gravity:  !mapValue(m, "gravity").IsFalsy(),
			Lifetime: lifetime,
		})
		return &tengo.Int{Value: int64(id)}, nil
	})

	return &tengo.ImmutableMap{Value: values}
}

func mapValue(m *tengo.Map, key string) tengo.Object {
	if v, ok := m.Value[key]; ok {
		return v
	}
	return tengo.UndefinedValue
}

func entityArg(args []tengo.Object, want int) (ecs.EntityID, error) {
	if len(args) != want {
		return 0, tengo.ErrWrongNumArguments
	}
	v, ok := tengo.ToInt64(args[0])
	if !ok || v < 1 {
		return 0, argType("id", "entity id", args[0])
	}
	return ecs.EntityID(v), nil
}

func entityVectorArgs(args []tengo.Object) (ecs.EntityID, cp.Vector, error) {
	if len(args) != 3 {
		return 0, cp.Vector{}, tengo.ErrWrongNumArguments
	}
	id, err := entityArg(args[:1], 1)
	if err != nil {
		return 0, cp.Vector{}, err
	}
	x, ok := tengo.ToFloat64(args[1])
	if !ok {
		return 0, cp.Vector{}, argType("x", "float", args[1])
	}
	y, ok := tengo.ToFloat64(args[2])
	if !ok {
		return 0, cp.Vector{}, argType("y", "float", args[2])
	}
	return id, cp.Vector{X: x, Y: y}, nil
}

func argType(name, expected string, found tengo.Object) error {
	return tengo.ErrInvalidArgumentType{Name: name, Expected: expected, Found: found.TypeName()}
}

func vectorObject(v cp.Vector, ok bool) tengo.Object {
	if !ok {
		return tengo.UndefinedValue
	}
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
