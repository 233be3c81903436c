package adv

import (
	"cmp"
	"slices"

	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/core/scope"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/task"
	"github.com/murenne/ADVLite/internal/tween"
	"go.uber.org/zap"
)

// Registry owns the views of one playback. Views are keyed by the id the
// script assigns; every view scope is a child of the playback root, and
// cancelling the root disposes every view.
type Registry struct {
	views  map[int]*View
	stacks map[int]stack // per level, bottom first
	seq    uint64
	target int

	root      *scope.Scope
	res       *resource.Manager
	pool      *resource.RenderTargetPool
	presenter Presenter
	tasks     *task.Registry
	anim      *tween.List
	bus       *event.Bus
	placement PlacementPolicy
	log       *zap.Logger
}

// NewRegistry creates an empty registry whose views live under root.
func NewRegistry(root *scope.Scope, d *Deps, tasks *task.Registry, anim *tween.List) *Registry {
	r := &Registry{
		views:     make(map[int]*View),
		stacks:    make(map[int]stack),
		root:      root,
		res:       d.Resources,
		pool:      d.Pool,
		presenter: d.Presenter,
		tasks:     tasks,
		anim:      anim,
		bus:       d.Bus,
		placement: d.Placement,
		log:       d.Log,
	}
	if r.placement == nil {
		r.placement = NewOffsetPlacement(d.Config.Placement)
	}
	root.OnCancel(r.DisposeAll)
	return r
}

func (r *Registry) Get(id int) (*View, bool) {
	v, ok := r.views[id]
	return v, ok
}

func (r *Registry) Len() int    { return len(r.views) }
func (r *Registry) Target() int { return r.target }

// Views returns every view in creation order.
func (r *Registry) Views() []*View {
	out := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *View) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

// Stack returns the draw order of a level, bottom first.
func (r *Registry) Stack(level int) []int {
	return slices.Clone(r.stacks[level])
}

// SetOrder changes the draw order of a view. A view fading out for delete
// keeps its order.
func (r *Registry) SetOrder(id, order int) {
	v, ok := r.views[id]
	if !ok || v.state == Deleting {
		r.log.Debug("no live object", zap.Int("id", id), zap.String("op", "set_order"))
		return
	}
	v.Order = order
}

// SetTarget marks the speaking character. Any id is accepted; zero or a
// negative id means no particular target.
func (r *Registry) SetTarget(id int) {
	r.target = id
}

// RecomputeDrawOrder restacks the shown views of level. Views are visited
// by draw order; the placement policy sends each to the back, the front or
// the middle of the stack, then the target is raised to the top.
func (r *Registry) RecomputeDrawOrder(level int) []int {
	var views []*View
	for _, v := range r.Views() {
		if v.Level == level && v.surface != nil {
			views = append(views, v)
		}
	}
	slices.SortStableFunc(views, func(a, b *View) int { return cmp.Compare(a.Order, b.Order) })

	st := r.stacks[level]
	top, found := 0, false
	for i, v := range views {
		x, _ := v.surface.Position()
		switch r.placement.Band(x) {
		case BandBack:
			st = st.first(v.ID)
		case BandFront:
			st = st.last(v.ID)
		default:
			st = st.moveTo(v.ID, i/2)
		}
		if r.target <= 0 || v.ID == r.target {
			top, found = v.ID, true
		}
	}
	if found {
		st = st.last(top)
	}
	r.stacks[level] = st
	r.presenter.Layer(level).Restack(slices.Clone(st))
	return slices.Clone(st)
}

// StopAllBodyMotions mixes out every body motion that can still be
// stopped.
func (r *Registry) StopAllBodyMotions() {
	for _, v := range r.views {
		if v.figure != nil && v.figure.CanStopBody() {
			v.figure.StopBodyDefault()
		}
	}
}

// figure returns the controller of a shown figure view.
func (r *Registry) figure(id int) (*View, bool) {
	v, ok := r.views[id]
	if !ok || v.figure == nil || v.disposed || v.state == Deleting {
		return nil, false
	}
	return v, true
}

// shown returns a view with a live surface, logging when there is none.
// A view fading out for delete counts as absent.
func (r *Registry) shown(id int, op string) (*View, bool) {
	v, ok := r.views[id]
	if !ok || v.surface == nil || v.disposed || v.state == Deleting {
		r.log.Debug("no shown object", zap.Int("id", id), zap.String("op", op))
		return nil, false
	}
	return v, true
}
