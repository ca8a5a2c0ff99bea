package physics

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

const eps = 1e-9

func v(x, y float64) cp.Vector { return cp.Vector{X: x, Y: y} }

func TestOverlap(t *testing.T) {
	half := v(8, 8)
	cases := []struct {
		name    string
		a, b    cp.Vector
		want    cp.Vector
		overlap bool
	}{
		{"same_centre", v(0, 0), v(0, 0), v(16, 16), true},
		{"a_left_above", v(0, 0), v(10, 4), v(-6, -12), true},
		{"a_right_below", v(10, 4), v(0, 0), v(6, 12), true},
		{"touching_x", v(0, 0), v(16, 0), cp.Vector{}, false},
		{"touching_y", v(0, 0), v(0, -16), cp.Vector{}, false},
		{"apart", v(0, 0), v(40, 40), cp.Vector{}, false},
		{"overlap_x_only", v(0, 0), v(4, 30), cp.Vector{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Overlap(half, c.a, half, c.b)
			if ok != c.overlap {
				t.Fatalf("expected overlap=%v, got %v", c.overlap, ok)
			}
			if !got.Equal(c.want) {
				t.Fatalf("expected depth %v, got %v", c.want, got)
			}
		})
	}
}

func TestImpactTime(t *testing.T) {
	cases := []struct {
		name                    string
		desired, prevA, prevB   float64
		velA, velB, depth, want float64
	}{
		// A moves right from 0 by 10 into B resting at 20.
		{"closing", -16, 0, 20, 10, 0, -6, 0.4},
		// B moves left from 30 by 20 into A resting at 0.
		{"other_side_moving", -16, 0, 30, 0, -20, -2, 0.7},
		{"both_moving", -16, 0, 20, 4, -4, -8, 0.5},
		{"no_depth", -16, 0, 20, 10, 0, 0, 1},
		{"still", -16, 0, 20, 0, 0, -6, 1},
		{"same_velocity", -16, 0, 20, 5, 5, -6, 1},
		{"already_inside", -16, 0, 10, 2, 0, -8, 1}, // t < 0
		{"not_reached", -16, 0, 40, 10, 0, -6, 1},   // t >= 1
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ImpactTime(c.desired, c.prevA, c.prevB, c.velA, c.velB, c.depth)
			if math.Abs(got-c.want) > eps {
				t.Fatalf("expected t=%v, got %v", c.want, got)
			}
		})
	}
}

func TestImpactTimeStopsAtContact(t *testing.T) {
	// A starts 20 left of B and closes by 10; it must end exactly touching.
	prevA, prevB, vel := 0.0, 20.0, 10.0
	d := ContactDistance(8, 8, prevA, prevB)
	depth, ok := Overlap(v(8, 8), v(prevA+vel, 0), v(8, 8), v(prevB, 0))
	if !ok {
		t.Fatalf("boxes should overlap after moving")
	}
	tx := ImpactTime(d, prevA, prevB, vel, 0, depth.X)
	x := prevA + vel*tx
	if math.Abs((prevB-x)-16) > eps {
		t.Fatalf("expected A to stop 16 from B, stopped at %v", x)
	}
}

func TestContactDistance(t *testing.T) {
	if d := ContactDistance(8, 4, 0, 5); d != -12 {
		t.Fatalf("B after A should give -12, got %v", d)
	}
	if d := ContactDistance(8, 4, 5, 0); d != 12 {
		t.Fatalf("B before A should give 12, got %v", d)
	}
	if d := ContactDistance(8, 4, 5, 5); d != 12 {
		t.Fatalf("equal starts should give 12, got %v", d)
	}
}

func TestProbes(t *testing.T) {
	pos, half := v(100, 50), v(8, 8)
	ps := Probes(pos, half, 1)

	// Solid floor directly below, its top edge flush with the box bottom.
	floor := v(100, 66)
	touching := map[Edge]bool{}
	for _, p := range ps {
		touching[p.Edge] = p.Touches(half, floor)
	}
	if !touching[EdgeBottom] || touching[EdgeTop] || touching[EdgeLeft] || touching[EdgeRight] {
		t.Fatalf("expected only bottom sensor, got %v", touching)
	}

	// Wall flush on the right.
	wall := v(116, 50)
	for _, p := range ps {
		if got := p.Touches(half, wall); got != (p.Edge == EdgeRight) {
			t.Fatalf("edge %d: touches=%v", p.Edge, got)
		}
	}
}
