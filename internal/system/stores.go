package system

import (
	"github.com/boxworld/engine/internal/component"
	"github.com/boxworld/engine/internal/core/ecs"
)

// Stores bundles the component stores the gameplay systems read and write.
type Stores struct {
	Transform   *ecs.Store[component.Transform]
	Movement    *ecs.Store[component.Movement]
	AABB        *ecs.Store[component.AABB]
	Sensors     *ecs.Store[component.Sensors]
	Mortal      *ecs.Store[component.Mortal]
	Gravity     *ecs.Store[component.Gravity]
	Lifetime    *ecs.Store[component.LimitedLifetime]
	ZIndex      *ecs.Store[component.ZIndex]
	Sprite      *ecs.Store[component.Sprite]
	Animation   *ecs.Store[component.Animation]
	OnCollision *ecs.Store[component.OnCollision]
}

// RegisterComponents registers every gameplay component with reg. Transforms
// are kept ordered by X for the collision broad phase and z-indices by layer
// for drawing. colliders sizes the Transform and AABB stores up front; zero
// keeps the store default.
func RegisterComponents(reg *ecs.Registry, colliders int) *Stores {
	return &Stores{
		Sprite:      ecs.Register[component.Sprite](reg),
		Animation:   ecs.Register[component.Animation](reg),
		Transform:   ecs.Register(reg, sized(colliders, ecs.WithOrder(component.ByX))...),
		Movement:    ecs.Register[component.Movement](reg),
		AABB:        ecs.Register(reg, sized[component.AABB](colliders)...),
		Sensors:     ecs.Register[component.Sensors](reg),
		Mortal:      ecs.Register[component.Mortal](reg),
		ZIndex:      ecs.Register(reg, ecs.WithOrder(component.ByZ)),
		Gravity:     ecs.Register[component.Gravity](reg),
		Lifetime:    ecs.Register[component.LimitedLifetime](reg),
		OnCollision: ecs.Register[component.OnCollision](reg),
	}
}

func sized[T any](n int, opts ...ecs.Option[T]) []ecs.Option[T] {
	if n > 0 {
		opts = append(opts, ecs.WithCapacity[T](n))
	}
	return opts
}
