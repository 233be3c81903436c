// Package task tracks outstanding background work so the scheduler can
// tell when everything a script started has finished.
package task

import (
	"context"
)

type Status int

const (
	Pending Status = iota
	Completed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Task is anything with a queryable completion status.
type Task interface {
	Status() Status
}

// Future is a Task resolved by the owner goroutine. Complete and Cancel
// after resolution are ignored.
type Future struct {
	name   string
	status Status
	err    error
	done   []func(Status)
}

func NewFuture(name string) *Future {
	return &Future{name: name}
}

func (f *Future) Name() string    { return f.name }
func (f *Future) Status() Status  { return f.status }
func (f *Future) Err() error      { return f.err }
func (f *Future) IsPending() bool { return f.status == Pending }

// Complete resolves the future. err records a failure without making the
// task pending again.
func (f *Future) Complete(err error) {
	f.resolve(Completed, err)
}

func (f *Future) Cancel() {
	f.resolve(Cancelled, context.Canceled)
}

// OnDone runs fn once the future resolves (immediately if it already has).
func (f *Future) OnDone(fn func(Status)) {
	if f.status != Pending {
		fn(f.status)
		return
	}
	f.done = append(f.done, fn)
}

func (f *Future) resolve(s Status, err error) {
	if f.status != Pending {
		return
	}
	f.status = s
	f.err = err
	done := f.done
	f.done = nil
	for _, fn := range done {
		fn(s)
	}
}

// Poster hands a function to the owner goroutine.
type Poster interface {
	Post(fn func())
}

// Go runs fn on a new goroutine and resolves the returned future on the
// owner goroutine through p. A context error from fn cancels the future.
func Go(ctx context.Context, p Poster, name string, fn func(context.Context) error) *Future {
	f := NewFuture(name)
	go func() {
		err := fn(ctx)
		p.Post(func() {
			if err != nil && ctx.Err() != nil {
				f.Cancel()
				return
			}
			f.Complete(err)
		})
	}()
	return f
}
