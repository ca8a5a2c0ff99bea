package component

import "github.com/jakecoffman/cp"

// SheetID and EntryID index into the asset table. Components hold these
// handles instead of pointers into asset data.
type (
	SheetID int
	EntryID int
)

// NoEntry marks an Animation that has not been bound to an entry yet.
const NoEntry EntryID = -1

// Rect is a source rectangle in texture pixels.
type Rect struct {
	X, Y, W, H float64
}

// Sprite is what a renderer would draw: a rectangle of a spritesheet texture.
// Origin is the offset of the rectangle's top-left corner from the entity
// position, in pixels.
type Sprite struct {
	Sheet  SheetID
	Source Rect
	Origin cp.Vector
}

// NewSprite builds a sprite whose origin is given as a 0..1 fraction of the
// rectangle, 0.5/0.5 being the centre.
func NewSprite(sheet SheetID, src Rect, ox, oy float64) Sprite {
	return Sprite{
		Sheet:  sheet,
		Source: src,
		Origin: cp.Vector{X: -ox * src.W, Y: -oy * src.H},
	}
}

// Animation steps through the frames of one spritesheet entry.
type Animation struct {
	Sheet        SheetID
	Entry        EntryID
	CurrentFrame int
	Loop         bool
	DestroyAfter bool
}
