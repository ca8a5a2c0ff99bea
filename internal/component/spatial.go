package component

import (
	"cmp"

	"github.com/jakecoffman/cp"
)

// Transform places an entity in world space. Position is the centre of the
// entity; Scale flips the sprite when X is negative.
type Transform struct {
	Position cp.Vector
	Scale    cp.Vector
}

func NewTransform(x, y float64) Transform {
	return Transform{Position: cp.Vector{X: x, Y: y}, Scale: cp.Vector{X: 1, Y: 1}}
}

// ByX orders transforms left to right. The collision broad phase depends on
// the Transform store being kept in this order.
func ByX(a, b Transform) int { return cmp.Compare(a.Position.X, b.Position.X) }

// Movement is a velocity in world units per tick.
type Movement struct {
	Velocity cp.Vector
}

// ZIndex is the draw layer; lower layers draw first.
type ZIndex struct {
	Z int
}

func ByZ(a, b ZIndex) int { return cmp.Compare(a.Z, b.Z) }
