package adv

import (
	"fmt"
	"image"

	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/figure"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/task"
	"github.com/murenne/ADVLite/internal/tween"
	"go.uber.org/zap"
)

// Create replaces the view for id with a new one backed by key. The
// surface appears once every asset the kind needs has loaded; until then
// the create is tracked as a pending task.
func (r *Registry) Create(id int, key resource.Key, p scripting.ObjectParam) *View {
	r.Delete(id, nil)

	r.seq++
	v := &View{
		ID:     id,
		Key:    key,
		Level:  p.Level,
		Order:  p.Order,
		Param:  p,
		seq:    r.seq,
		scope:  r.root.Child(),
		create: task.NewFuture("create " + key.String()),
	}
	r.views[id] = v
	v.scope.OnCancel(func() {
		if v.create.IsPending() {
			r.dropLoads(v)
		}
	})

	switch key.Kind {
	case resource.KindSprite:
		h := resource.Load[image.Image](r.res, key)
		v.own(h)
		h.Then(func(img image.Image, err error) {
			if err != nil {
				r.fail(v, err)
				return
			}
			r.show(v, Content{Kind: key.Kind, Image: img})
		})
	case resource.KindPrefab:
		h := resource.Load[*resource.PrefabDoc](r.res, key)
		v.own(h)
		h.Then(func(doc *resource.PrefabDoc, err error) {
			if err != nil {
				r.fail(v, err)
				return
			}
			r.showPrefab(v, doc)
		})
	case resource.KindFigure:
		h := resource.Load[*figure.Skeleton](r.res, key)
		v.own(h)
		h.Then(func(skel *figure.Skeleton, err error) {
			if err != nil {
				r.fail(v, err)
				return
			}
			r.showFigure(v, skel)
		})
	default:
		r.fail(v, fmt.Errorf("object %d: cannot display %s", id, key.Kind))
		return v
	}

	if v.create.IsPending() {
		r.log.Debug("object create pending, asset not prepared",
			zap.Int("id", id),
			zap.Stringer("key", key),
		)
		r.tasks.Track(v.create)
	}
	return v
}

// showPrefab loads the sprite a prefab embeds, if any, before showing it.
func (r *Registry) showPrefab(v *View, doc *resource.PrefabDoc) {
	if doc.Sprite == "" {
		r.show(v, Content{Kind: resource.KindPrefab, Prefab: doc})
		return
	}
	h := resource.Load[image.Image](r.res, resource.Sprite(doc.Sprite))
	v.own(h)
	h.Then(func(img image.Image, err error) {
		if err != nil {
			r.fail(v, fmt.Errorf("prefab %s sprite: %w", doc.Name, err))
			return
		}
		r.show(v, Content{Kind: resource.KindPrefab, Prefab: doc, Image: img})
	})
}

func (r *Registry) showFigure(v *View, skel *figure.Skeleton) {
	v.target = r.pool.Acquire()
	v.figure = figure.NewController(skel, v.ID, nil, r.log)
	v.placement = figure.Placement{X: v.Param.RenderPosX, Y: v.Param.RenderPosY, Scale: v.Param.RenderScale}
	v.figure.Render(v.target.RGBA, v.placement)
	r.show(v, Content{Kind: resource.KindFigure, Image: v.target.RGBA})
}

// show attaches the surface and resolves the create.
func (r *Registry) show(v *View, c Content) {
	v.surface = r.presenter.Layer(v.Level).Attach(v.ID, c, v.Param.PosX, v.Param.PosY)
	r.stacks[v.Level] = append(r.stacks[v.Level].remove(v.ID), v.ID)

	switch {
	case v.Param.Show == 0:
		v.surface.SetAlpha(0)
	case c.Kind == resource.KindSprite && v.Param.FadeTime > 0:
		v.surface.SetAlpha(0)
		tw := tween.New(fmt.Sprintf("fade_in %d", v.ID)).
			FromTo(v.surface.SetAlpha, 0, 1, v.Param.FadeTime, tween.Linear)
		v.replaceTween(r.anim.Add(tw))
	default:
		v.surface.SetAlpha(1)
	}

	event.Emit(r.bus, event.ObjectShown{ID: v.ID, Kind: c.Kind.String(), Key: v.Key.Path})
	v.create.Complete(nil)
}

// fail abandons a view whose load did not produce an asset. The create
// resolves as completed so waiting scripts move on.
func (r *Registry) fail(v *View, err error) {
	r.log.Warn("object load failed",
		zap.Int("id", v.ID),
		zap.Stringer("key", v.Key),
		zap.Error(err),
	)
	event.Emit(r.bus, event.LoadFailed{ID: v.ID, Key: v.Key.String(), Err: err})
	v.create.Complete(err)
	r.finalize(v)
}

// dropLoads releases the handles of a create still in flight.
func (r *Registry) dropLoads(v *View) {
	for _, h := range v.handles {
		h.Dispose()
	}
	v.create.Cancel()
}

// Delete removes the view for id. With a fade parameter the surface fades
// out first and the view stays registered as Deleting until the fade ends;
// deleting a Deleting view finalizes it at once.
func (r *Registry) Delete(id int, p *scripting.ObjectParam) {
	v, ok := r.views[id]
	if !ok {
		return
	}
	if v.state == Deleting {
		r.finalize(v)
		return
	}

	v.scope.Cancel()
	if p == nil || p.FadeTime <= 0 || v.surface == nil {
		r.finalize(v)
		return
	}
	if v.tween != nil {
		v.tween.Complete()
	}
	if v.disposed {
		return
	}

	v.state = Deleting
	v.scope = r.root.Child()
	done := func() { r.finalize(v) }
	tw := tween.New(fmt.Sprintf("delete %d", id)).
		FromTo(v.surface.SetAlpha, 1, 0, p.FadeTime, tween.Linear).
		OnComplete(done).
		OnKill(done)
	v.tween = tw
	v.scope.OnCancel(tw.Kill)
	r.anim.Add(tw)
	r.tasks.Track(tw)
}

// finalize disposes v and unregisters it if it is still the view for its
// id.
func (r *Registry) finalize(v *View) {
	r.dispose(v)
	if cur, ok := r.views[v.ID]; ok && cur == v {
		delete(r.views, v.ID)
	}
}

// dispose releases everything v owns. Each resource is released exactly
// once however many paths reach it.
func (r *Registry) dispose(v *View) {
	if v.disposed {
		return
	}
	v.disposed = true

	v.scope.Cancel()
	if v.tween != nil {
		v.tween.Kill()
		v.tween = nil
	}
	if v.surface != nil {
		v.surface.Destroy()
		v.surface = nil
		r.stacks[v.Level] = r.stacks[v.Level].remove(v.ID)
	}
	if v.target != nil {
		r.pool.Release(v.target)
		v.target = nil
	}
	v.figure = nil
	for _, h := range v.handles {
		h.Dispose()
	}
	v.handles = nil
	v.create.Cancel()

	event.Emit(r.bus, event.ObjectDisposed{ID: v.ID})
}

// DisposeAll disposes every view in creation order.
func (r *Registry) DisposeAll() {
	for _, v := range r.Views() {
		r.finalize(v)
	}
}
