// Package tween drives frame-stepped value animations. A Tween is a
// sequence of segments (value interpolations, intervals, callbacks) that
// may loop; it is advanced only by Step, so playback speed follows the
// frame clock exactly.
package tween

import (
	"time"

	"github.com/murenne/ADVLite/internal/task"
)

type state int

const (
	playing state = iota
	completed
	killed
)

type segment struct {
	dur  time.Duration
	ease Ease
	get  func() float64
	set  func(float64)
	to   float64
	from float64
	call func()
}

func (s *segment) apply(p float64) {
	if s.set == nil {
		return
	}
	if p >= 1 {
		s.set(s.to)
		return
	}
	s.set(s.from + (s.to-s.from)*s.ease.Apply(p))
}

// Tween is built with the chain methods before its first Step. Owner
// goroutine only.
type Tween struct {
	name  string
	segs  []segment
	total time.Duration
	loops int

	delayLeft time.Duration
	idx       int
	elapsed   time.Duration
	started   bool
	pass      int
	state     state

	onComplete []func()
	onKill     []func()
}

func New(name string) *Tween {
	return &Tween{name: name, loops: 1}
}

// To appends an interpolation from the value get reports when the segment
// starts to target.
func (t *Tween) To(get func() float64, set func(float64), target float64, d time.Duration, e Ease) *Tween {
	if e == Unset || !e.Valid() {
		e = Default
	}
	t.segs = append(t.segs, segment{dur: clampDur(d), ease: e, get: get, set: set, to: target})
	t.total += clampDur(d)
	return t
}

// FromTo appends an interpolation with a fixed start value.
func (t *Tween) FromTo(set func(float64), from, to float64, d time.Duration, e Ease) *Tween {
	return t.To(func() float64 { return from }, set, to, d, e)
}

func (t *Tween) Interval(d time.Duration) *Tween {
	t.segs = append(t.segs, segment{dur: clampDur(d)})
	t.total += clampDur(d)
	return t
}

func (t *Tween) Call(fn func()) *Tween {
	t.segs = append(t.segs, segment{call: fn})
	return t
}

// Delay postpones the first segment.
func (t *Tween) Delay(d time.Duration) *Tween {
	t.delayLeft = clampDur(d)
	return t
}

// Loops sets how many passes to play; n < 0 repeats until killed or
// completed, 0 and 1 both play once.
func (t *Tween) Loops(n int) *Tween {
	if n == 0 {
		n = 1
	}
	t.loops = n
	return t
}

func (t *Tween) OnComplete(fn func()) *Tween {
	t.onComplete = append(t.onComplete, fn)
	return t
}

func (t *Tween) OnKill(fn func()) *Tween {
	t.onKill = append(t.onKill, fn)
	return t
}

func (t *Tween) Name() string { return t.name }
func (t *Tween) Active() bool { return t.state == playing }
func (t *Tween) Killed() bool { return t.state == killed }

// Duration is the length of one pass, excluding the initial delay.
func (t *Tween) Duration() time.Duration { return t.total }

// Status maps the tween onto task semantics so the scheduler can wait on it.
func (t *Tween) Status() task.Status {
	switch t.state {
	case completed:
		return task.Completed
	case killed:
		return task.Cancelled
	}
	return task.Pending
}

// Step advances the tween by dt, crossing as many segment and loop
// boundaries as dt covers.
func (t *Tween) Step(dt time.Duration) {
	if t.state != playing {
		return
	}
	if dt < 0 {
		dt = 0
	}
	if t.delayLeft > 0 {
		if dt < t.delayLeft {
			t.delayLeft -= dt
			return
		}
		dt -= t.delayLeft
		t.delayLeft = 0
	}
	for t.state == playing {
		if t.idx >= len(t.segs) {
			t.pass++
			if (t.loops > 0 && t.pass >= t.loops) || t.total == 0 {
				t.finish()
				return
			}
			t.idx, t.elapsed, t.started = 0, 0, false
			continue
		}
		s := &t.segs[t.idx]
		t.begin(s)
		need := s.dur - t.elapsed
		if dt >= need {
			dt -= need
			t.end(s)
			if t.state != playing {
				return
			}
			continue
		}
		t.elapsed += dt
		s.apply(float64(t.elapsed) / float64(s.dur))
		return
	}
}

// Complete jumps to the end of the current pass, applying every remaining
// target and callback, then fires the completion callbacks.
func (t *Tween) Complete() {
	if t.state != playing {
		return
	}
	t.delayLeft = 0
	for t.state == playing && t.idx < len(t.segs) {
		s := &t.segs[t.idx]
		t.begin(s)
		t.end(s)
	}
	t.finish()
}

// Kill stops the tween where it is. Values stay as last applied.
func (t *Tween) Kill() {
	if t.state != playing {
		return
	}
	t.state = killed
	fns := t.onKill
	t.onKill = nil
	for _, fn := range fns {
		fn()
	}
}

func (t *Tween) begin(s *segment) {
	if t.started {
		return
	}
	t.started = true
	if s.get != nil {
		s.from = s.get()
	}
}

func (t *Tween) end(s *segment) {
	s.apply(1)
	t.idx++
	t.elapsed, t.started = 0, false
	if s.call != nil {
		s.call()
	}
}

func (t *Tween) finish() {
	if t.state != playing {
		return
	}
	t.state = completed
	fns := t.onComplete
	t.onComplete = nil
	for _, fn := range fns {
		fn()
	}
}

func clampDur(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
