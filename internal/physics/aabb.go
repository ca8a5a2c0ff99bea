// Package physics holds the pure geometry behind collision detection and
// resolution: box overlap, time of impact and edge sensor probes.
package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Overlap tests two boxes given by half extents and centres. Boxes that only
// touch do not overlap. The returned depth is signed per axis: negative when
// A lies left of (or above) B.
func Overlap(halfA, posA, halfB, posB cp.Vector) (cp.Vector, bool) {
	nx := posA.X - posB.X
	ox := halfA.X + halfB.X - math.Abs(nx)
	if ox <= 0 {
		return cp.Vector{}, false
	}
	if nx < 0 {
		ox = -ox
	}

	ny := posA.Y - posB.Y
	oy := halfA.Y + halfB.Y - math.Abs(ny)
	if oy <= 0 {
		return cp.Vector{}, false
	}
	if ny < 0 {
		oy = -oy
	}
	return cp.Vector{X: ox, Y: oy}, true
}

// ImpactTime solves, on one axis, for the fraction t of this tick at which two
// boxes moving linearly from prevA and prevB were exactly touching:
//
//	prevA + velA*t - (prevB + velB*t) = desired
//
// desired is the sum of half extents, negated when B started after A. The
// result is 1 whenever there is no usable answer: the boxes do not overlap on
// this axis, neither moves, both move alike, or t falls outside [0, 1).
func ImpactTime(desired, prevA, prevB, velA, velB, depth float64) float64 {
	if depth == 0 || (velA == 0 && velB == 0) || velA == velB {
		return 1
	}
	t := (desired + prevB - prevA) / (velA - velB)
	if t >= 0 && t < 1 {
		return t
	}
	return 1
}

// ContactDistance is the signed centre distance at which two boxes touch on
// one axis, negative when B started after A.
func ContactDistance(halfA, halfB, prevA, prevB float64) float64 {
	d := halfA + halfB
	if prevB > prevA {
		return -d
	}
	return d
}
