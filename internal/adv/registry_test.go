package adv

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/task"
)

func noFade() scripting.ObjectParam {
	p := scripting.DefaultObjectParam()
	p.FadeTime = 0
	return p
}

func TestCreateShowsAfterLoad(t *testing.T) {
	f := newRegistryFixture(t)
	var shown []event.ObjectShown
	event.Subscribe(f.bus, func(e event.ObjectShown) { shown = append(shown, e) })

	p := noFade()
	p.PosX, p.PosY = 120, -40
	v := f.reg.Create(1, resource.Sprite("chara/a"), p)
	if v.Shown() {
		t.Fatal("shown before the load resolved")
	}
	if f.tasks.Len() != 1 {
		t.Fatalf("tasks = %d, want the pending create", f.tasks.Len())
	}

	pump(t, f.bus, v.Shown)
	s := f.presenter.surface(p.Level, 1)
	if s == nil || s.x != 120 || s.y != -40 || s.alpha != 1 {
		t.Fatalf("surface = %+v", s)
	}
	if f.tasks.Purge(); !f.tasks.Empty() {
		t.Error("create still tracked after show")
	}
	if got := f.reg.Stack(p.Level); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("stack = %v", got)
	}

	f.bus.Dispatch()
	if len(shown) != 1 || shown[0].ID != 1 || shown[0].Kind != "sprite" {
		t.Errorf("ObjectShown = %+v", shown)
	}
}

func TestSpriteFadesIn(t *testing.T) {
	f := newRegistryFixture(t)
	p := scripting.DefaultObjectParam()
	p.FadeTime = time.Second
	f.shown(t, 1, resource.Sprite("chara/a"), p)

	s := f.presenter.surface(p.Level, 1)
	if s.alpha != 0 {
		t.Fatalf("alpha = %v at show, want 0", s.alpha)
	}
	f.anim.Step(500 * time.Millisecond)
	if s.alpha < 0.49 || s.alpha > 0.51 {
		t.Errorf("alpha = %v halfway", s.alpha)
	}
	f.anim.Step(600 * time.Millisecond)
	if s.alpha != 1 {
		t.Errorf("alpha = %v after fade", s.alpha)
	}
}

func TestHiddenObjectStartsTransparent(t *testing.T) {
	f := newRegistryFixture(t)
	p := noFade()
	p.Show = 0
	f.shown(t, 3, resource.Prefab("ui/card"), p)
	if s := f.presenter.surface(p.Level, 3); s.alpha != 0 {
		t.Errorf("alpha = %v, want 0", s.alpha)
	}
}

func TestCreateReplacesExisting(t *testing.T) {
	f := newRegistryFixture(t)
	first := f.shown(t, 1, resource.Sprite("chara/a"), noFade())
	old := f.presenter.surface(2, 1)

	second := f.shown(t, 1, resource.Sprite("chara/b"), noFade())
	if !first.Disposed() || !old.destroyed {
		t.Error("replaced view not disposed")
	}
	if got, _ := f.reg.Get(1); got != second {
		t.Error("registry does not hold the new view")
	}
	if f.reg.Len() != 1 {
		t.Errorf("Len = %d", f.reg.Len())
	}
}

func TestLoadFailureResolvesCreate(t *testing.T) {
	f := newRegistryFixture(t)
	var failed []event.LoadFailed
	event.Subscribe(f.bus, func(e event.LoadFailed) { failed = append(failed, e) })

	v := f.reg.Create(9, resource.Sprite("missing"), noFade())
	pump(t, f.bus, v.Disposed)

	if v.create.Status() != task.Completed || !errors.Is(v.create.Err(), resource.ErrNotFound) {
		t.Errorf("create = %v, %v", v.create.Status(), v.create.Err())
	}
	if _, ok := f.reg.Get(9); ok {
		t.Error("failed view still registered")
	}
	f.bus.Dispatch()
	if len(failed) != 1 || failed[0].ID != 9 {
		t.Errorf("LoadFailed = %+v", failed)
	}
}

func TestUnsupportedKindFailsAtOnce(t *testing.T) {
	f := newRegistryFixture(t)
	v := f.reg.Create(4, resource.Audio("bgm/main"), noFade())
	if !v.Disposed() || v.create.Status() != task.Completed || v.create.Err() == nil {
		t.Errorf("create = %v, %v", v.create.Status(), v.create.Err())
	}
	if !f.tasks.Empty() {
		t.Error("failed create tracked")
	}
}

func TestDeleteFadesThenFinalizes(t *testing.T) {
	f := newRegistryFixture(t)
	v := f.shown(t, 1, resource.Sprite("chara/a"), noFade())
	s := f.presenter.surface(2, 1)

	p := scripting.DefaultObjectParam()
	p.FadeTime = time.Second
	f.reg.Delete(1, &p)
	if v.State() != Deleting {
		t.Fatalf("state = %v", v.State())
	}
	if _, ok := f.reg.Get(1); !ok {
		t.Fatal("deleting view unregistered early")
	}
	if f.tasks.Empty() {
		t.Error("fade not tracked")
	}

	f.anim.Step(500 * time.Millisecond)
	if s.alpha < 0.49 || s.alpha > 0.51 {
		t.Errorf("alpha = %v halfway", s.alpha)
	}
	f.anim.Step(600 * time.Millisecond)
	if !v.Disposed() || !s.destroyed {
		t.Error("view not disposed after fade")
	}
	if _, ok := f.reg.Get(1); ok {
		t.Error("view still registered after fade")
	}
}

func TestDeleteOfDeletingFinalizes(t *testing.T) {
	f := newRegistryFixture(t)
	v := f.shown(t, 1, resource.Sprite("chara/a"), noFade())
	p := scripting.DefaultObjectParam()
	p.FadeTime = time.Second
	f.reg.Delete(1, &p)
	f.reg.Delete(1, &p)
	if !v.Disposed() || f.reg.Len() != 0 {
		t.Errorf("disposed = %v, Len = %d", v.Disposed(), f.reg.Len())
	}
}

func TestDeletingViewIgnoresMutations(t *testing.T) {
	f := newRegistryFixture(t)
	m := &Manager{objects: f.reg, anim: f.anim}
	v := f.shown(t, 1, resource.Sprite("chara/a"), noFade())
	s := f.presenter.surface(2, 1)
	order := v.Order

	p := scripting.DefaultObjectParam()
	p.FadeTime = time.Second
	f.reg.Delete(1, &p)
	m.MoveX(1, 50, time.Second)
	f.reg.SetOrder(1, 99)

	if v.Disposed() {
		t.Fatal("move finalized the fading view")
	}
	if v.Order != order {
		t.Errorf("Order = %d, want %d", v.Order, order)
	}
	f.anim.Step(500 * time.Millisecond)
	if s.alpha < 0.49 || s.alpha > 0.51 || s.x != v.Param.PosX {
		t.Errorf("halfway alpha = %v, x = %v", s.alpha, s.x)
	}
	f.anim.Step(600 * time.Millisecond)
	if !v.Disposed() {
		t.Error("view not disposed after fade")
	}
	if _, ok := f.reg.Get(1); ok {
		t.Error("view still registered after fade")
	}
}

func TestDeleteDuringLoadDropsHandle(t *testing.T) {
	f := newRegistryFixture(t)
	gate := make(chan struct{})
	f.loader.gate = gate
	key := resource.Sprite("chara/a")

	v := f.reg.Create(1, key, noFade())
	if f.reg.res.Refs(key) != 1 {
		t.Fatalf("Refs = %d", f.reg.res.Refs(key))
	}
	f.reg.Delete(1, nil)
	if f.reg.res.Refs(key) != 0 {
		t.Errorf("Refs after delete = %d", f.reg.res.Refs(key))
	}
	if v.create.Status() != task.Cancelled {
		t.Errorf("create = %v, want cancelled", v.create.Status())
	}

	close(gate)
	for range 5 {
		f.bus.Dispatch()
		time.Sleep(time.Millisecond)
	}
	if v.Shown() {
		t.Error("deleted view shown after late load")
	}
}

func TestDisposeOnce(t *testing.T) {
	f := newRegistryFixture(t)
	var disposed []int
	event.Subscribe(f.bus, func(e event.ObjectDisposed) { disposed = append(disposed, e.ID) })

	f.shown(t, 1, resource.Sprite("chara/a"), noFade())
	f.shown(t, 2, resource.Figure("fig/alice"), noFade())
	if f.pool.Active() != 1 {
		t.Fatalf("pool active = %d", f.pool.Active())
	}

	f.reg.Delete(1, nil)
	f.reg.Delete(1, nil)
	f.root.Cancel()
	f.root.Cancel()

	f.bus.Dispatch()
	if !reflect.DeepEqual(disposed, []int{1, 2}) {
		t.Errorf("disposed = %v", disposed)
	}
	if f.pool.Active() != 0 || f.pool.Available() != 1 {
		t.Errorf("pool active = %d, available = %d", f.pool.Active(), f.pool.Available())
	}
	if f.reg.Len() != 0 {
		t.Errorf("Len = %d", f.reg.Len())
	}
}

func TestFigureRendersIntoTarget(t *testing.T) {
	f := newRegistryFixture(t)
	p := noFade()
	p.RenderScale = 0.5
	v := f.shown(t, 5, resource.Figure("fig/alice"), p)
	if v.Figure() == nil || v.target == nil {
		t.Fatal("figure view without controller or target")
	}
	c := f.presenter.layer(p.Level).content[5]
	if c.Kind != resource.KindFigure || c.Image != v.target.RGBA {
		t.Errorf("content = %+v", c)
	}
	if v.placement.Scale != 0.5 {
		t.Errorf("placement = %+v", v.placement)
	}
}

func TestRecomputeDrawOrder(t *testing.T) {
	tests := []struct {
		name   string
		target int
		want   []int
	}{
		{"target raised", 2, []int{4, 1, 3, 2}},
		{"no target raises last", 0, []int{2, 1, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistryFixture(t)
			xs := []float64{300, 0, -300, 0}
			for i, x := range xs {
				p := noFade()
				p.PosX = x
				f.shown(t, i+1, resource.Sprite("chara/a"), p)
			}
			f.reg.SetTarget(tt.target)

			got := f.reg.RecomputeDrawOrder(2)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			if l := f.presenter.layer(2); !reflect.DeepEqual(l.order, tt.want) {
				t.Errorf("layer order = %v", l.order)
			}
		})
	}
}

func TestSetOrderSortsBeforeBands(t *testing.T) {
	f := newRegistryFixture(t)
	for id := 1; id <= 3; id++ {
		f.shown(t, id, resource.Sprite("chara/a"), noFade())
	}
	f.reg.SetOrder(1, 5)
	f.reg.SetTarget(3)

	// visit order 2, 3, 1: 2 -> 0, 3 -> 0, 1 -> 1, then 3 on top
	got := f.reg.RecomputeDrawOrder(2)
	if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
