package component

// Gravity tags entities that fall.
type Gravity struct{}

// LimitedLifetime removes the entity once Frames reaches zero.
type LimitedLifetime struct {
	Frames int
}
