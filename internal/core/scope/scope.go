package scope

import "context"

// Scope is a node in a cancellation tree. Cancel runs synchronously on the
// caller's goroutine: children first, then this scope's hooks in reverse
// registration order. A cancelled scope is never reused; allocate a new
// child instead.
//
// Scopes are owned by the scheduler goroutine. Only Context may be handed
// to other goroutines.
type Scope struct {
	parent    *Scope
	children  map[*Scope]struct{}
	hooks     []*hook
	cancelled bool

	ctx    context.Context
	cancel context.CancelFunc
}

type hook struct {
	fn func()
}

// NewRoot creates a root scope whose context derives from ctx.
func NewRoot(ctx context.Context) *Scope {
	c, cancel := context.WithCancel(ctx)
	return &Scope{ctx: c, cancel: cancel}
}

// Child allocates a scope cancelled together with s. A child of a
// cancelled scope is born cancelled.
func (s *Scope) Child() *Scope {
	c, cancel := context.WithCancel(s.ctx)
	child := &Scope{parent: s, ctx: c, cancel: cancel}
	if s.cancelled {
		child.cancelled = true
		cancel()
		return child
	}
	if s.children == nil {
		s.children = make(map[*Scope]struct{})
	}
	s.children[child] = struct{}{}
	return child
}

// OnCancel registers fn to run when the scope is cancelled. If the scope is
// already cancelled fn runs immediately. The returned func unregisters fn.
func (s *Scope) OnCancel(fn func()) (remove func()) {
	if s.cancelled {
		fn()
		return func() {}
	}
	h := &hook{fn: fn}
	s.hooks = append(s.hooks, h)
	return func() { h.fn = nil }
}

// Cancel cancels the scope and its whole subtree. Idempotent.
func (s *Scope) Cancel() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.cancel()

	for child := range s.children {
		child.Cancel()
	}
	s.children = nil

	for i := len(s.hooks) - 1; i >= 0; i-- {
		if fn := s.hooks[i].fn; fn != nil {
			s.hooks[i].fn = nil
			fn()
		}
	}
	s.hooks = nil

	if s.parent != nil {
		delete(s.parent.children, s)
		s.parent = nil
	}
}

func (s *Scope) Cancelled() bool { return s.cancelled }

// Context returns a context cancelled with the scope. Safe to pass to
// loader goroutines.
func (s *Scope) Context() context.Context { return s.ctx }

// Err reports context.Canceled once the scope is cancelled.
func (s *Scope) Err() error {
	if s.cancelled {
		return context.Canceled
	}
	return nil
}
