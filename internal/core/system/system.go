package system

import "time"

// Phase defines execution ordering within the view update pass that runs
// once per frame after state advancement.
type Phase int

const (
	PhaseAnimate Phase = iota // 0: step tweens
	PhaseFigure               // 1: figure tracks, blink timers, lip-sync
	PhaseRender               // 2: draw figures into pooled targets
	PhasePresent              // 3: push derived state to the presenter

	numPhases
)

// System is the interface every view pass system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
