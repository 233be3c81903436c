package tween

import "time"

// List is the set of tweens advanced each frame.
type List struct {
	tweens []*Tween
}

func NewList() *List {
	return &List{}
}

func (l *List) Add(t *Tween) *Tween {
	if t != nil && t.Active() {
		l.tweens = append(l.tweens, t)
	}
	return t
}

// Step advances every active tween. Tweens added by callbacks during Step
// start on the next call.
func (l *List) Step(dt time.Duration) {
	n := len(l.tweens)
	for i := 0; i < n; i++ {
		l.tweens[i].Step(dt)
	}
}

// Purge drops finished tweens and returns how many were removed.
func (l *List) Purge() int {
	kept := l.tweens[:0]
	for _, t := range l.tweens {
		if t.Active() {
			kept = append(kept, t)
		}
	}
	removed := len(l.tweens) - len(kept)
	for i := len(kept); i < len(l.tweens); i++ {
		l.tweens[i] = nil
	}
	l.tweens = kept
	return removed
}

// Pending counts tweens still playing.
func (l *List) Pending() int {
	n := 0
	for _, t := range l.tweens {
		if t.Active() {
			n++
		}
	}
	return n
}

func (l *List) Len() int { return len(l.tweens) }

// KillAll kills every tween and empties the list.
func (l *List) KillAll() {
	tweens := l.tweens
	l.tweens = nil
	for _, t := range tweens {
		t.Kill()
	}
}
