package adv

import (
	"time"

	coresys "github.com/murenne/ADVLite/internal/core/system"
)

// lipSyncLevel is the voice level above which the speaking figure opens
// its mouth.
const lipSyncLevel = 0.01

// animateSystem steps tweens and the headless audio clock.
// Phase 0 (Animate).
type animateSystem struct {
	m *Manager
}

func (s *animateSystem) Phase() coresys.Phase { return coresys.PhaseAnimate }

func (s *animateSystem) Update(dt time.Duration) {
	s.m.anim.Step(dt)
	s.m.d.Audio.Advance(dt)
}

// figureSystem advances figure tracks and drives the lip sync of the
// speaking figure. Phase 1 (Figure).
type figureSystem struct {
	m      *Manager
	target int
}

func (s *figureSystem) Phase() coresys.Phase { return coresys.PhaseFigure }

func (s *figureSystem) Update(dt time.Duration) {
	objects := s.m.objects
	target := objects.Target()
	if target != s.target {
		// the previous speaker stops talking when the line moves on
		if v, ok := objects.figure(s.target); ok && v.figure.LipPlaying() {
			v.figure.SetLipSync(false, 0)
		}
		s.target = target
	}

	voice := s.m.d.Audio.IsVoicePlaying() && s.m.d.Audio.VoiceLevel() > lipSyncLevel
	for _, v := range objects.Views() {
		if v.figure == nil || v.disposed {
			continue
		}
		if v.ID == target {
			v.figure.UpdateLipSync(voice)
		}
		v.figure.Update(dt)
	}
}

// renderSystem draws each figure into its render target. Phase 2 (Render).
type renderSystem struct {
	m *Manager
}

func (s *renderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *renderSystem) Update(_ time.Duration) {
	for _, v := range s.m.objects.Views() {
		if v.figure == nil || v.target == nil || v.disposed {
			continue
		}
		v.figure.Render(v.target.RGBA, v.placement)
	}
}

// presentSystem flushes the frame to the presenter. Phase 3 (Present).
type presentSystem struct {
	m *Manager
}

func (s *presentSystem) Phase() coresys.Phase { return coresys.PhasePresent }

func (s *presentSystem) Update(_ time.Duration) {
	s.m.d.Presenter.Sync()
}
