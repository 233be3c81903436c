package resource

import (
	"fmt"

	"github.com/murenne/ADVLite/internal/task"
)

// Handle owns one reference to a shared load.
type Handle[T any] struct {
	m        *Manager
	e        *entry
	key      Key
	resolved bool
	disposed bool
	value    T
	err      error
	then     []func(T, error)
}

// Load takes a reference to key, starting the underlying load if this is
// the first one. When the value is already loaded the handle is resolved
// before Load returns.
func Load[T any](m *Manager, key Key) *Handle[T] {
	h := &Handle[T]{m: m, key: key}
	h.e = m.acquire(key, h)
	return h
}

func (h *Handle[T]) resolve(value any, err error) {
	if h.disposed || h.resolved {
		return
	}
	h.resolved = true
	if err == nil {
		v, ok := value.(T)
		if !ok {
			err = fmt.Errorf("resource %s: unexpected value type %T", h.key, value)
		} else {
			h.value = v
		}
	}
	h.err = err
	fns := h.then
	h.then = nil
	for _, fn := range fns {
		fn(h.value, h.err)
	}
}

func (h *Handle[T]) Key() Key    { return h.key }
func (h *Handle[T]) Done() bool  { return h.resolved }
func (h *Handle[T]) Valid() bool { return !h.disposed }
func (h *Handle[T]) Err() error  { return h.err }

// Value returns the loaded value. It fails with ErrReleased after Dispose.
func (h *Handle[T]) Value() (T, error) {
	var zero T
	if h.disposed {
		return zero, ErrReleased
	}
	if !h.resolved {
		return zero, fmt.Errorf("resource %s: not loaded yet", h.key)
	}
	return h.value, h.err
}

// Then runs fn once the handle resolves. It runs synchronously when the
// handle has already resolved and never runs after Dispose.
func (h *Handle[T]) Then(fn func(T, error)) {
	if h.disposed {
		return
	}
	if h.resolved {
		fn(h.value, h.err)
		return
	}
	h.then = append(h.then, fn)
}

// Status lets the scheduler wait on a handle like any other task.
func (h *Handle[T]) Status() task.Status {
	switch {
	case h.resolved:
		return task.Completed
	case h.disposed:
		return task.Cancelled
	}
	return task.Pending
}

// Dispose releases the reference exactly once. Queued callbacks are
// dropped. Safe before resolution and on an already disposed handle.
func (h *Handle[T]) Dispose() {
	if h == nil || h.disposed {
		return
	}
	h.disposed = true
	h.then = nil
	var zero T
	h.value = zero
	h.m.release(h.e, h)
}
