package ecs

import "strconv"

// EntityID is an opaque handle that joins component records across stores.
// IDs are issued by a single Registry counter, start at 1 and are never
// recycled, so a stale ID can never alias a newer entity. Zero means "no entity".
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// entityCounter hands out monotonically increasing IDs.
type entityCounter struct {
	last EntityID
}

func (c *entityCounter) next() EntityID {
	c.last++
	return c.last
}

// Issued reports how many IDs have been handed out so far.
func (c *entityCounter) issued() int {
	return int(c.last)
}
