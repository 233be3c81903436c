package tween

import (
	"math"
	"testing"
	"time"

	"github.com/murenne/ADVLite/internal/task"
)

const ms = time.Millisecond

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEaseEndpoints(t *testing.T) {
	for e := Unset; e < easeCount; e++ {
		if got := e.Apply(0); !near(got, 0) {
			t.Errorf("%d.Apply(0) = %v", e, got)
		}
		if got := e.Apply(1); !near(got, 1) {
			t.Errorf("%d.Apply(1) = %v", e, got)
		}
	}
	if !near(Ease(999).Apply(0.5), Default.Apply(0.5)) {
		t.Error("unknown ease did not fall back to the default curve")
	}
	if !near(Linear.Apply(0.25), 0.25) {
		t.Error("linear is not identity")
	}
}

func TestToInterpolatesFromCurrentValue(t *testing.T) {
	x := 10.0
	tw := New("move").To(func() float64 { return x }, func(v float64) { x = v }, 20, 100*ms, Linear)

	x = 0 // start value is captured on the first step, not at build time
	tw.Step(50 * ms)
	if !near(x, 10) {
		t.Fatalf("x = %v after half the duration, want 10", x)
	}
	tw.Step(50 * ms)
	if !near(x, 20) || tw.Active() {
		t.Fatalf("x = %v active=%v, want 20 and done", x, tw.Active())
	}
	if tw.Status() != task.Completed {
		t.Errorf("Status = %v", tw.Status())
	}
}

func TestDelayIntervalAndCallback(t *testing.T) {
	var calls []string
	alpha := 1.0
	tw := New("flash").
		Delay(30 * ms).
		Interval(20 * ms).
		FromTo(func(v float64) { alpha = v }, 1, 0, 50*ms, Linear).
		Call(func() { calls = append(calls, "delete") }).
		OnComplete(func() { calls = append(calls, "complete") })

	tw.Step(40 * ms) // delay consumed, 10ms into the interval
	if !near(alpha, 1) {
		t.Fatalf("alpha changed during delay/interval: %v", alpha)
	}
	tw.Step(35 * ms) // 25ms into the fade
	if !near(alpha, 0.5) {
		t.Fatalf("alpha = %v, want 0.5", alpha)
	}
	tw.Step(time.Second)
	if !near(alpha, 0) {
		t.Errorf("alpha = %v, want 0", alpha)
	}
	if len(calls) != 2 || calls[0] != "delete" || calls[1] != "complete" {
		t.Errorf("calls = %v", calls)
	}
}

func TestLoopsRestartSequence(t *testing.T) {
	x := 0.0
	set := func(v float64) { x = v }
	get := func() float64 { return x }
	passes := 0
	tw := New("shake").
		To(get, set, 5, 10*ms, Linear).
		To(get, set, 0, 10*ms, Linear).
		Call(func() { passes++ }).
		Loops(3)

	tw.Step(45 * ms)
	if passes != 2 || !tw.Active() {
		t.Fatalf("passes = %d active=%v after 45ms", passes, tw.Active())
	}
	tw.Step(15 * ms)
	if passes != 3 || tw.Active() {
		t.Fatalf("passes = %d active=%v, want 3 and done", passes, tw.Active())
	}
	if !near(x, 0) {
		t.Errorf("x = %v, want 0", x)
	}
}

func TestCompleteAppliesRemainingTargets(t *testing.T) {
	x, y := 0.0, 0.0
	done := false
	tw := New("seq").
		FromTo(func(v float64) { x = v }, 0, 1, time.Second, Linear).
		FromTo(func(v float64) { y = v }, 0, 2, time.Second, Linear).
		OnComplete(func() { done = true })
	tw.Step(100 * ms)
	tw.Complete()
	if !near(x, 1) || !near(y, 2) || !done {
		t.Errorf("x=%v y=%v done=%v", x, y, done)
	}
	tw.Complete()
	tw.Kill()
	if tw.Status() != task.Completed {
		t.Error("Kill after Complete changed status")
	}
}

func TestKillLeavesValueAndFiresOnKill(t *testing.T) {
	x := 0.0
	killed, completed := false, false
	tw := New("fade").
		FromTo(func(v float64) { x = v }, 0, 1, 100*ms, Linear).
		OnKill(func() { killed = true }).
		OnComplete(func() { completed = true })
	tw.Step(50 * ms)
	tw.Kill()
	tw.Step(time.Second)
	if !near(x, 0.5) || !killed || completed {
		t.Errorf("x=%v killed=%v completed=%v", x, killed, completed)
	}
	if tw.Status() != task.Cancelled {
		t.Errorf("Status = %v", tw.Status())
	}
}

func TestInfiniteZeroLengthLoopTerminates(t *testing.T) {
	n := 0
	tw := New("noop").Call(func() { n++ }).Loops(-1)
	tw.Step(ms)
	if tw.Active() || n != 1 {
		t.Errorf("active=%v calls=%d", tw.Active(), n)
	}
}

func TestListStepAndPurge(t *testing.T) {
	l := NewList()
	var a, b float64
	l.Add(New("a").FromTo(func(v float64) { a = v }, 0, 1, 10*ms, Linear))
	l.Add(New("b").FromTo(func(v float64) { b = v }, 0, 1, 30*ms, Linear))

	finished := New("done")
	finished.Complete()
	l.Add(finished)
	if l.Len() != 2 {
		t.Fatalf("Len = %d, finished tweens must not be added", l.Len())
	}

	l.Step(20 * ms)
	if !near(a, 1) || b >= 1 {
		t.Fatalf("a=%v b=%v", a, b)
	}
	if l.Pending() != 1 {
		t.Errorf("Pending = %d", l.Pending())
	}
	if n := l.Purge(); n != 1 || l.Len() != 1 {
		t.Errorf("Purge = %d Len = %d", n, l.Len())
	}
	l.KillAll()
	if l.Len() != 0 {
		t.Error("KillAll left tweens behind")
	}
}
