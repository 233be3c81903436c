package adv

import (
	"fmt"
	"time"

	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/tween"
	"go.uber.org/zap"
)

// claim completes the view's running tween so a new one can start from
// its end state. It reports false when completing disposed the view.
func claim(v *View) bool {
	if v.tween != nil {
		t := v.tween
		v.tween = nil
		t.Complete()
	}
	return !v.disposed
}

func (m *Manager) MoveX(id int, x float64, d time.Duration) {
	v, ok := m.objects.shown(id, "move_x")
	if !ok || !claim(v) {
		return
	}
	s := v.surface
	get := func() float64 { x, _ := s.Position(); return x }
	set := func(nx float64) { _, y := s.Position(); s.SetPosition(nx, y) }
	v.tween = m.anim.Add(tween.New(fmt.Sprintf("move_x/%d", id)).To(get, set, x, d, tween.Default))
}

// MoveY moves by dy relative to where the view currently is.
func (m *Manager) MoveY(id int, dy float64, d time.Duration, ease int) {
	v, ok := m.objects.shown(id, "move_y")
	if !ok || !claim(v) {
		return
	}
	s := v.surface
	get := func() float64 { _, y := s.Position(); return y }
	set := func(ny float64) { x, _ := s.Position(); s.SetPosition(x, ny) }
	v.tween = m.anim.Add(tween.New(fmt.Sprintf("move_y/%d", id)).To(get, set, get()+dy, d, tween.Ease(ease)))
}

// shakeTween builds one shake: out, back, the other way, back, each a
// quarter of the duration.
func shakeTween(name string, s Surface, p scripting.ShakeParam) (*tween.Tween, bool) {
	var get func() float64
	var set func(float64)
	switch p.Axis {
	case "x":
		get = func() float64 { x, _ := s.Position(); return x }
		set = func(nx float64) { _, y := s.Position(); s.SetPosition(nx, y) }
	case "y":
		get = func() float64 { _, y := s.Position(); return y }
		set = func(ny float64) { x, _ := s.Position(); s.SetPosition(x, ny) }
	default:
		return nil, false
	}

	seg := p.Duration / 4
	ease := tween.Ease(p.Ease)
	origin := get()
	tw := tween.New(name).
		To(get, set, origin+p.Strength, seg, ease).
		To(get, set, origin, seg, ease).
		To(get, set, origin-p.Strength, seg, ease).
		To(get, set, origin, seg, ease).
		Loops(max(p.Count, 1)).
		Delay(p.Delay)
	return tw, true
}

func (m *Manager) Shake(id int, p scripting.ShakeParam) {
	if p.Axis != "x" && p.Axis != "y" {
		m.log.Error("invalid shake axis", zap.Int("id", id), zap.String("axis", p.Axis), zap.String("where", m.d.Engine.Where()))
		return
	}
	v, ok := m.objects.shown(id, "shake")
	if !ok || !claim(v) {
		return
	}
	tw, _ := shakeTween(fmt.Sprintf("shake/%d", id), v.surface, p)
	v.tween = m.anim.Add(tw)
}

func (m *Manager) TextWindowShake(p scripting.ShakeParam) {
	if m.windowTween != nil {
		m.windowTween.Complete()
		m.windowTween = nil
	}
	tw, ok := shakeTween("text_window_shake", m.d.Presenter.TextWindow(), p)
	if !ok {
		m.log.Error("invalid shake axis", zap.String("axis", p.Axis), zap.String("where", m.d.Engine.Where()))
		return
	}
	m.windowTween = m.anim.Add(tw)
}

// Flash holds the view for wait, fades it out over end, then deletes it
// unless the id was reused meanwhile.
func (m *Manager) Flash(id int, wait, end time.Duration) {
	v, ok := m.objects.shown(id, "flash")
	if !ok || !claim(v) {
		return
	}
	s := v.surface
	tw := tween.New(fmt.Sprintf("flash/%d", id)).
		Interval(wait).
		To(s.Alpha, s.SetAlpha, 0, end, tween.Linear).
		Call(func() {
			if cur, ok := m.objects.Get(id); ok && cur == v {
				m.objects.Delete(id, nil)
			}
		})
	v.tween = m.anim.Add(tw)
}

// FadeIn clears the screen overlay over d and waits for it.
func (m *Manager) FadeIn(d time.Duration) {
	m.enter(queued{state: StateWaitTime, rest: d})
	m.fadeScreen(0, d)
}

// FadeOut darkens the screen over d and waits for it.
func (m *Manager) FadeOut(d time.Duration) {
	m.enter(queued{state: StateWaitTime, rest: d})
	m.fadeScreen(1, d)
}

func (m *Manager) fadeScreen(alpha float64, d time.Duration) {
	if m.screenTween != nil {
		m.screenTween.Complete()
		m.screenTween = nil
	}
	s := m.d.Presenter.Screen()
	m.screenTween = m.anim.Add(tween.New("screen_fade").To(s.Alpha, s.SetAlpha, alpha, d, tween.Linear))
}
