package adv

import (
	"github.com/murenne/ADVLite/internal/core/scope"
	"github.com/murenne/ADVLite/internal/figure"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/task"
	"github.com/murenne/ADVLite/internal/tween"
)

// Lifecycle of a view.
type Lifecycle int

const (
	Active Lifecycle = iota
	Deleting
)

type disposer interface {
	Dispose()
}

// View is one object the script created. At most one view exists per id.
type View struct {
	ID    int
	Key   resource.Key
	Level int
	Order int
	Param scripting.ObjectParam

	state   Lifecycle
	seq     uint64 // creation order, breaks draw order ties
	scope   *scope.Scope
	handles []disposer
	create  *task.Future
	tween   *tween.Tween
	surface Surface

	target    *resource.RenderTarget
	figure    *figure.Controller
	placement figure.Placement

	disposed bool
}

func (v *View) Kind() resource.Kind        { return v.Key.Kind }
func (v *View) State() Lifecycle           { return v.state }
func (v *View) Surface() Surface           { return v.surface }
func (v *View) Shown() bool                { return v.surface != nil }
func (v *View) Disposed() bool             { return v.disposed }
func (v *View) Figure() *figure.Controller { return v.figure }

func (v *View) own(h disposer) {
	v.handles = append(v.handles, h)
}

// replaceTween completes the running tween and installs t in its place.
func (v *View) replaceTween(t *tween.Tween) {
	if v.tween != nil {
		v.tween.Complete()
	}
	v.tween = t
}
