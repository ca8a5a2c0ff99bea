package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called at tick start by the dispatch system.
//
// Event types are dispatched in the order they were first emitted so a tick's
// handlers run deterministically.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    *buffer
	back     *buffer
	handlers map[reflect.Type][]any
}

type buffer struct {
	order  []reflect.Type
	events map[reflect.Type][]any
}

func newBuffer() *buffer {
	return &buffer{events: make(map[reflect.Type][]any)}
}

func (b *buffer) push(t reflect.Type, ev any) {
	q, seen := b.events[t]
	if !seen {
		b.order = append(b.order, t)
	}
	b.events[t] = append(q, ev)
}

func (b *buffer) reset() {
	b.order = b.order[:0]
	clear(b.events)
}

func NewBus() *Bus {
	return &Bus{
		front:    newBuffer(),
		back:     newBuffer(),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer (readable next tick).
func Emit[T any](b *Bus, event T) {
	b.back.push(reflect.TypeFor[T](), event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeFor[T]()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	b.back.reset()
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Handlers may Emit; those events land in the back buffer for the next tick.
func (b *Bus) DispatchAll() {
	for _, t := range b.front.order {
		handlers := b.handlers[t]
		for _, ev := range b.front.events[t] {
			for _, h := range handlers {
				callHandler(h, ev)
			}
		}
	}
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
