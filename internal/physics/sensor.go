package physics

import "github.com/jakecoffman/cp"

// Edge names one side of a box.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Probe is a thin box centred on one edge of another box.
type Probe struct {
	Edge   Edge
	Centre cp.Vector
	Half   cp.Vector
}

// Probes returns the four edge strips of a box of half extents half centred
// at pos. Side strips are thickness*2 wide and as tall as the box; top and
// bottom strips are as wide as the box.
func Probes(pos, half cp.Vector, thickness float64) [4]Probe {
	side := cp.Vector{X: thickness, Y: half.Y}
	ends := cp.Vector{X: half.X, Y: thickness}
	return [4]Probe{
		{EdgeLeft, cp.Vector{X: pos.X - half.X, Y: pos.Y}, side},
		{EdgeRight, cp.Vector{X: pos.X + half.X, Y: pos.Y}, side},
		{EdgeTop, cp.Vector{X: pos.X, Y: pos.Y - half.Y}, ends},
		{EdgeBottom, cp.Vector{X: pos.X, Y: pos.Y + half.Y}, ends},
	}
}

// Touches reports whether the probe overlaps a box.
func (p Probe) Touches(half, pos cp.Vector) bool {
	_, ok := Overlap(p.Half, p.Centre, half, pos)
	return ok
}
