package ecs

import (
	"fmt"
	"reflect"
)

// Registry owns one Store per component type plus the entity counter. Stores
// are committed and advanced in registration order.
type Registry struct {
	stores  []ComponentStore
	byType  map[reflect.Type]ComponentStore
	counter entityCounter
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]ComponentStore, 0, 16),
		byType: make(map[reflect.Type]ComponentStore, 16),
	}
}

// Register creates the store for T. Registering the same type twice panics.
func Register[T any](r *Registry, opts ...Option[T]) *Store[T] {
	t := reflect.TypeFor[T]()
	if _, dup := r.byType[t]; dup {
		panic(fmt.Sprintf("ecs: component %s registered twice", t))
	}
	s := NewStore(opts...)
	r.byType[t] = s
	r.stores = append(r.stores, s)
	return s
}

// StoreOf returns the store registered for T.
func StoreOf[T any](r *Registry) *Store[T] {
	t := reflect.TypeFor[T]()
	s, ok := r.byType[t]
	if !ok {
		panic(fmt.Sprintf("ecs: component %s is not registered", t))
	}
	return s.(*Store[T])
}

// Entity issues a fresh id with no components. Ids are never reused.
func (r *Registry) Entity() EntityID { return r.counter.next() }

// Issued is the number of ids handed out so far.
func (r *Registry) Issued() int { return r.counter.issued() }

// Stores lists every store in registration order.
func (r *Registry) Stores() []ComponentStore { return r.stores }

// Add stages v as id's T record. It becomes visible after the next commit.
func Add[T any](r *Registry, id EntityID, v T) {
	StoreOf[T](r).StageAdd(id, v)
}

// Remove stages the removal of id's T record.
func Remove[T any](r *Registry, id EntityID) {
	StoreOf[T](r).StageRemove(id)
}

// RemoveAll stages the removal of id from every registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.StageRemove(id)
	}
}

func Get[T any](r *Registry, id EntityID) T { return StoreOf[T](r).Get(id) }

func TryGet[T any](r *Registry, id EntityID) (T, bool) { return StoreOf[T](r).TryGet(id) }

func Mut[T any](r *Registry, id EntityID) *T { return StoreOf[T](r).Mut(id) }

func Has[T any](r *Registry, id EntityID) bool { return StoreOf[T](r).Has(id) }

// Alive reports whether id has a live record in any store.
func (r *Registry) Alive(id EntityID) bool {
	for _, s := range r.stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// FinalizeUpdate commits every store. Iterators opened before the call must
// not be used afterwards.
func (r *Registry) FinalizeUpdate() {
	for _, s := range r.stores {
		s.Commit()
	}
}

// EndFrame advances every store to the next frame. Call once per tick, after
// the last FinalizeUpdate.
func (r *Registry) EndFrame() {
	for _, s := range r.stores {
		s.AdvanceFrame()
	}
}
