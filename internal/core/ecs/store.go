package ecs

import (
	"fmt"
	"reflect"
	"slices"
)

// ComponentStore is the type-erased side of a Store used by the Registry and
// by queries. Only stores created by this package implement it.
type ComponentStore interface {
	ComponentName() string
	Has(id EntityID) bool
	Len() int
	StageRemove(id EntityID)
	Commit()
	AdvanceFrame()

	liveFind(id EntityID) (int, bool)
	liveKey(i int) EntityID
}

// Option configures a Store at registration time.
type Option[T any] func(*Store[T])

// WithOrder keeps the store sorted by cmp after every commit that changed it.
// cmp must define a strict weak ordering; ties keep no particular order.
func WithOrder[T any](cmp func(a, b T) int) Option[T] {
	return func(s *Store[T]) { s.order = cmp }
}

// WithOnChange calls fn once per frame for every entity whose record was
// added or mutated during that frame.
func WithOnChange[T any](fn func(id EntityID, v T)) Option[T] {
	return func(s *Store[T]) { s.onChange = fn }
}

// WithCapacity preallocates room for n records in each buffer.
func WithCapacity[T any](n int) Option[T] {
	return func(s *Store[T]) { s.capacity = n }
}

// Store holds every record of one component type in two buffers.
//
// The live buffer is what reads and iteration observe; it never changes while a
// phase is running. The in-progress buffer receives Mut writes and, at Commit,
// the staged additions and removals. Commit then publishes in-progress as the
// new live buffer, and AdvanceFrame does the same once per tick.
type Store[T any] struct {
	name     string
	capacity int

	live    *IndexMap[EntityID, T]
	working *IndexMap[EntityID, T]

	adds     []EntityID
	addVals  map[EntityID]T
	removes  []EntityID
	removing map[EntityID]struct{}

	dirty bool // needs re-sort
	stale bool // working differs from live

	order    func(a, b T) int
	onChange func(EntityID, T)
	touched  map[EntityID]struct{}
}

func NewStore[T any](opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		name:     reflect.TypeFor[T]().String(),
		capacity: 256,
		addVals:  make(map[EntityID]T),
		removing: make(map[EntityID]struct{}),
		touched:  make(map[EntityID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.live = NewIndexMap[EntityID, T](s.capacity)
	s.working = NewIndexMap[EntityID, T](s.capacity)
	return s
}

func (s *Store[T]) ComponentName() string { return s.name }

// Len is the number of live records.
func (s *Store[T]) Len() int { return s.live.Len() }

func (s *Store[T]) Has(id EntityID) bool { return s.live.Has(id) }

// Get returns the live record of id. A missing record is a caller bug.
func (s *Store[T]) Get(id EntityID) T {
	i, ok := s.live.Find(id)
	if !ok {
		panic(fmt.Sprintf("ecs: entity %d has no %s", id, s.name))
	}
	return s.live.ValueAt(i)
}

func (s *Store[T]) TryGet(id EntityID) (T, bool) {
	i, ok := s.live.Find(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.live.ValueAt(i), true
}

// Latest returns the in-progress record of id, including writes made since
// the last commit. It does not mark the store dirty.
func (s *Store[T]) Latest(id EntityID) (T, bool) {
	i, ok := s.working.Find(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.working.ValueAt(i), true
}

// Mut returns a pointer to the in-progress record of id and marks it changed.
// The pointer is valid until the next Commit or AdvanceFrame.
func (s *Store[T]) Mut(id EntityID) *T {
	i, ok := s.working.Find(id)
	if !ok {
		panic(fmt.Sprintf("ecs: entity %d has no %s to mutate", id, s.name))
	}
	s.touch(id)
	return s.working.PtrAt(i)
}

// Each visits every live record in dense order.
func (s *Store[T]) Each(fn func(EntityID, T)) {
	for i, id := range s.live.Keys() {
		fn(id, s.live.ValueAt(i))
	}
}

// StageAdd records v for id, applied at the next Commit. It is ignored when an
// add is already pending or id already has a record that is not being removed.
func (s *Store[T]) StageAdd(id EntityID, v T) {
	if _, pending := s.addVals[id]; pending {
		return
	}
	if s.working.Has(id) && !s.Removing(id) {
		return
	}
	s.adds = append(s.adds, id)
	s.addVals[id] = v
}

// StageRemove records the removal of id's record, applied at the next Commit.
// A pending add for id is cancelled instead.
func (s *Store[T]) StageRemove(id EntityID) {
	if _, pending := s.addVals[id]; pending {
		delete(s.addVals, id)
		return
	}
	if !s.working.Has(id) || s.Removing(id) {
		return
	}
	s.removes = append(s.removes, id)
	s.removing[id] = struct{}{}
}

// Removing reports whether a removal of id's record is staged for the next
// Commit. Latest and Mut still see the record until then.
func (s *Store[T]) Removing(id EntityID) bool {
	_, ok := s.removing[id]
	return ok
}

// Commit applies staged removals and then staged additions to the in-progress
// buffer, re-sorts it when ordered and changed, and publishes it as live.
func (s *Store[T]) Commit() {
	for _, id := range s.removes {
		if s.working.Has(id) {
			s.working.Remove(id)
			delete(s.touched, id)
			s.dirty = true
		}
	}
	for _, id := range s.adds {
		v, ok := s.addVals[id]
		if !ok {
			continue // cancelled, or a duplicate entry of an add already applied
		}
		delete(s.addVals, id)
		s.working.Add(id, v)
		s.touch(id)
	}
	s.adds = s.adds[:0]
	s.removes = s.removes[:0]
	clear(s.addVals)
	clear(s.removing)

	if s.dirty {
		if s.order != nil {
			s.sort()
		}
		s.dirty = false
		s.stale = true
	}
	if s.stale {
		s.publish()
	}
}

// AdvanceFrame makes the in-progress buffer live, reseeds in-progress as an
// exact copy and reports the frame's changes to the on-change hook.
func (s *Store[T]) AdvanceFrame() {
	if s.stale {
		s.publish()
	}
	if s.onChange == nil || len(s.touched) == 0 {
		clear(s.touched)
		return
	}
	for i, id := range s.live.keys {
		if _, ok := s.touched[id]; ok {
			s.onChange(id, s.live.values[i])
		}
	}
	clear(s.touched)
}

// In reports whether the entity under it has a record in s.
func (s *Store[T]) In(it *Iter) bool {
	_, ok := it.liveIndex(s)
	return ok
}

// At returns the live record of the entity under it.
func (s *Store[T]) At(it *Iter) T {
	i, ok := it.liveIndex(s)
	if !ok {
		panic(fmt.Sprintf("ecs: entity %d has no %s in this query", it.Entity(), s.name))
	}
	return s.live.ValueAt(i)
}

// LatestAt returns the in-progress record of the entity under it.
func (s *Store[T]) LatestAt(it *Iter) T {
	if !s.In(it) {
		panic(fmt.Sprintf("ecs: entity %d has no %s in this query", it.Entity(), s.name))
	}
	v, ok := s.Latest(it.Entity())
	if !ok {
		panic(fmt.Sprintf("ecs: %s for entity %d was committed away mid-iteration", s.name, it.Entity()))
	}
	return v
}

// MutAt returns a writable in-progress record of the entity under it.
func (s *Store[T]) MutAt(it *Iter) *T {
	if !s.In(it) {
		panic(fmt.Sprintf("ecs: entity %d has no %s in this query", it.Entity(), s.name))
	}
	return s.Mut(it.Entity())
}

func (s *Store[T]) liveFind(id EntityID) (int, bool) { return s.live.Find(id) }
func (s *Store[T]) liveKey(i int) EntityID          { return s.live.KeyAt(i) }

func (s *Store[T]) touch(id EntityID) {
	s.dirty = true
	s.stale = true
	if s.onChange != nil {
		s.touched[id] = struct{}{}
	}
}

func (s *Store[T]) sort() {
	perm := make([]int, s.working.Len())
	for i := range perm {
		perm[i] = i
	}
	vals := s.working.values
	slices.SortStableFunc(perm, func(a, b int) int {
		return s.order(vals[a], vals[b])
	})
	s.working.ApplySort(perm)
}

func (s *Store[T]) publish() {
	s.live, s.working = s.working, s.live
	s.working.CopyFrom(s.live)
	s.stale = false
}
