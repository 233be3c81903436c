package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during frame N are
// delivered when the owner calls Dispatch at the start of frame N+1.
// Emit and Post are safe from any goroutine (loader goroutines use them to
// hand results back); Subscribe and Dispatch belong to the owner goroutine.
type Bus struct {
	mu       sync.Mutex // guards back
	front    []queued
	back     []queued
	handlers map[reflect.Type][]any
}

type queued struct {
	typ   reflect.Type
	event any
}

// Continuation is work queued by a background goroutine to run on the
// owner goroutine.
type Continuation func()

var continuationType = reflect.TypeOf(Continuation(nil))

func NewBus() *Bus {
	return &Bus{
		front:    make([]queued, 0, 32),
		back:     make([]queued, 0, 32),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	b.back = append(b.back, queued{typ: t, event: event})
	b.mu.Unlock()
}

// Post queues fn to run on the owner goroutine during the next Dispatch.
func (b *Bus) Post(fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.back = append(b.back, queued{typ: continuationType, event: Continuation(fn)})
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Pending reports how many events are waiting for the next Dispatch.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// Dispatch swaps the buffers and delivers the front buffer in emission
// order. Continuations run directly; other events go to their handlers.
// Anything emitted while dispatching waits for the next call.
func (b *Bus) Dispatch() int {
	b.mu.Lock()
	b.front, b.back = b.back, b.front[:0]
	b.mu.Unlock()

	n := len(b.front)
	for i, q := range b.front {
		if q.typ == continuationType {
			q.event.(Continuation)()
		} else {
			for _, h := range b.handlers[q.typ] {
				callHandler(h, q.event)
			}
		}
		b.front[i] = queued{}
	}
	b.front = b.front[:0]
	return n
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
