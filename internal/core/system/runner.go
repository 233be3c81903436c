package system

import (
	"fmt"
	"time"
)

// Runner executes systems in phase order each frame. Within a phase,
// systems run in registration order.
type Runner struct {
	phases [numPhases][]System
	n      int
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register panics on a phase outside the declared set; the order of a
// frame depends on it.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= numPhases {
		panic(fmt.Sprintf("system: phase %d out of range", p))
	}
	r.phases[p] = append(r.phases[p], s)
	r.n++
}

func (r *Runner) Len() int { return r.n }

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		r.run(Phase(p), dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase >= 0 && phase < numPhases {
		r.run(phase, dt)
	}
}

func (r *Runner) run(p Phase, dt time.Duration) {
	for _, s := range r.phases[p] {
		s.Update(dt)
	}
}
