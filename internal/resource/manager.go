package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/murenne/ADVLite/internal/task"
	"go.uber.org/zap"
)

type entryState int

const (
	entryLoading entryState = iota
	entryLoaded
	entryFailed
)

// entry is one shared load. refs counts live handles.
type entry struct {
	key    Key
	refs   int
	state  entryState
	value  any
	err    error
	cancel context.CancelFunc
	subs   []subscriber
}

type subscriber interface {
	resolve(value any, err error)
}

// Manager owns the load map. Owner goroutine only; loads report back
// through the poster.
type Manager struct {
	loader  Loader
	poster  task.Poster
	log     *zap.Logger
	ctx     context.Context
	entries map[Key]*entry
}

// NewManager creates a manager whose loads derive from ctx.
func NewManager(ctx context.Context, loader Loader, poster task.Poster, log *zap.Logger) *Manager {
	return &Manager{
		loader:  loader,
		poster:  poster,
		log:     log,
		ctx:     ctx,
		entries: make(map[Key]*entry),
	}
}

// Refs returns the live reference count for key.
func (m *Manager) Refs(key Key) int {
	if e, ok := m.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of keys with live references.
func (m *Manager) Len() int { return len(m.entries) }

func (m *Manager) acquire(key Key, sub subscriber) *entry {
	e, ok := m.entries[key]
	if !ok {
		e = &entry{key: key}
		m.entries[key] = e
		m.start(e)
	}
	e.refs++
	switch e.state {
	case entryLoading:
		e.subs = append(e.subs, sub)
	case entryLoaded:
		sub.resolve(e.value, nil)
	case entryFailed:
		sub.resolve(nil, e.err)
	}
	return e
}

func (m *Manager) start(e *entry) {
	ctx, cancel := context.WithCancel(m.ctx)
	e.cancel = cancel
	go func() {
		value, err := m.loader.Load(ctx, e.key)
		m.poster.Post(func() { m.finish(ctx, e, value, err) })
	}()
}

// finish runs on the owner goroutine when a load returns.
func (m *Manager) finish(ctx context.Context, e *entry, value any, err error) {
	if cur, ok := m.entries[e.key]; !ok || cur != e {
		// Every reference went away while loading.
		if err == nil && value != nil {
			m.loader.Release(e.key, value)
		}
		return
	}
	if err == nil && ctx.Err() != nil {
		if value != nil {
			m.loader.Release(e.key, value)
		}
		value, err = nil, ctx.Err()
	}
	e.cancel()
	if err != nil {
		e.state = entryFailed
		e.err = fmt.Errorf("load %s: %w", e.key, err)
		if !errors.Is(err, context.Canceled) {
			m.log.Warn("resource load failed", zap.Stringer("key", e.key), zap.Error(err))
		}
	} else {
		e.state = entryLoaded
		e.value = value
	}
	subs := e.subs
	e.subs = nil
	for _, s := range subs {
		s.resolve(e.value, e.err)
	}
}

// release drops one reference held by sub.
func (m *Manager) release(e *entry, sub subscriber) {
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			break
		}
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	if cur, ok := m.entries[e.key]; ok && cur == e {
		delete(m.entries, e.key)
	}
	switch e.state {
	case entryLoading:
		e.cancel()
	case entryLoaded:
		m.loader.Release(e.key, e.value)
		e.value = nil
	}
}

// Close logs every key still referenced and cancels loads in flight.
func (m *Manager) Close() {
	if len(m.entries) == 0 {
		m.log.Debug("resource manager closed, no leaked resources")
		return
	}
	for key, e := range m.entries {
		m.log.Error("resource not released",
			zap.Stringer("key", key),
			zap.Int("refs", e.refs),
		)
		if e.state == entryLoading {
			e.cancel()
		}
	}
}
