package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
)

// body is the script view of one side of a collision.
func body(id ecs.EntityID, box component.AABB, tf component.Transform) map[string]any {
	return map[string]any{
		"id":       int64(id),
		"x":        tf.Position.X,
		"y":        tf.Position.Y,
		"half_w":   box.HalfSize.X,
		"half_h":   box.HalfSize.Y,
		"prev_x":   box.PreviousPosition.X,
		"prev_y":   box.PreviousPosition.Y,
		"vel_x":    box.PreviousVelocity.X,
		"vel_y":    box.PreviousVelocity.Y,
		"material": box.Material.String(),
		"damage":   box.Damage,
		"hardness": box.Hardness,
		"piercing": box.Piercing,
	}
}

func eventFields(evt component.CollisionEvent) map[string]any {
	return map[string]any{
		"self":  body(evt.Self, evt.SelfBox, evt.SelfTransform),
		"other": body(evt.Other, evt.OtherBox, evt.OtherTransform),
	}
}

// toLua converts a decoded YAML value into a Lua value. Map keys are set in
// sorted order so table construction is deterministic.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []any:
		t := L.CreateTable(len(v), 0)
		for _, e := range v {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := L.CreateTable(0, len(v))
		for _, k := range keys {
			t.RawSetString(k, toLua(L, v[k]))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}
