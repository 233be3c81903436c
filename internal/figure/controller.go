package figure

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Track indexes the fixed animation layers of a figure.
type Track int

const (
	TrackBreath Track = iota
	TrackBody
	TrackEye
	TrackLip
	trackCount
)

const (
	breathAnimation = "breath"
	blinkMin        = time.Second
	blinkMax        = 6 * time.Second
	bodyStopMix     = 500 * time.Millisecond
)

// Animation names follow the figure asset convention.
func bodyName(id int) string     { return fmt.Sprintf("body_%03d", id) }
func eyeName(id int) string      { return fmt.Sprintf("eye_blink/eye_blink_1001%03d", id) }
func lipName(id int) string      { return fmt.Sprintf("lip/lip_1001%03d", id) }
func lipVoiceName(id int) string { return fmt.Sprintf("lip_voice/lip_voice_1001%03d", id) }

type trackState struct {
	anim    *Animation
	loop    bool
	elapsed time.Duration

	// mixing out towards the empty animation
	mixing  bool
	mixLeft time.Duration
	mixDur  time.Duration

	onComplete func()
}

func (t *trackState) empty() bool { return t.anim == nil }

// weight is the current strength of the track's effect in [0, 1].
func (t *trackState) weight() float64 {
	if t.anim == nil {
		return 0
	}
	d := t.anim.length()
	phase := float64(t.elapsed%d) / float64(d)
	if !t.loop && t.elapsed >= d {
		phase = 1
	}
	w := math.Sin(phase * math.Pi)
	if t.mixing && t.mixDur > 0 {
		w *= float64(t.mixLeft) / float64(t.mixDur)
	}
	return w
}

// Controller plays animations for one figure. Owner goroutine only.
type Controller struct {
	skel   *Skeleton
	id     int
	tracks [trackCount]trackState
	rng    *rand.Rand
	log    *zap.Logger
	canvas *image.RGBA

	faceMotion  int
	blinkTimer  time.Duration
	lipPlaying  bool
	canStopBody bool
}

// NewController binds a skeleton to the view id it is displayed under.
func NewController(skel *Skeleton, id int, rng *rand.Rand, log *zap.Logger) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(id)))
	}
	return &Controller{skel: skel, id: id, rng: rng, log: log}
}

func (c *Controller) ID() int             { return c.id }
func (c *Controller) Skeleton() *Skeleton { return c.skel }
func (c *Controller) FaceMotion() int     { return c.faceMotion }
func (c *Controller) LipPlaying() bool    { return c.lipPlaying }
func (c *Controller) CanStopBody() bool   { return c.canStopBody }

// Current returns the animation playing on tr, or "" when the track is
// empty.
func (c *Controller) Current(tr Track) string {
	if a := c.tracks[tr].anim; a != nil {
		return a.Name
	}
	return ""
}

func (c *Controller) set(tr Track, name string, loop bool) bool {
	a, ok := c.skel.Animation(name)
	if !ok {
		c.log.Warn("figure animation not found",
			zap.Int("id", c.id),
			zap.String("skeleton", c.skel.Name),
			zap.String("animation", name),
		)
		return false
	}
	c.tracks[tr] = trackState{anim: a, loop: loop}
	return true
}

// SetBreath loops the breathing animation.
func (c *Controller) SetBreath() {
	c.set(TrackBreath, breathAnimation, true)
}

// SetBody plays a one-shot body motion. The motion can be stopped early
// until it completes.
func (c *Controller) SetBody(motion int) {
	if !c.set(TrackBody, bodyName(motion), false) {
		return
	}
	c.canStopBody = true
	c.tracks[TrackBody].onComplete = func() { c.canStopBody = false }
}

// StopBody mixes the body track out over mix. No-op unless a body motion
// is still stoppable.
func (c *Controller) StopBody(mix time.Duration) {
	t := &c.tracks[TrackBody]
	if !c.canStopBody || t.empty() {
		return
	}
	if mix <= 0 {
		*t = trackState{}
		c.canStopBody = false
		return
	}
	t.mixing, t.mixLeft, t.mixDur = true, mix, mix
	t.onComplete = func() { c.canStopBody = false }
}

// StopBodyDefault stops the body motion with the standard mix time.
func (c *Controller) StopBodyDefault() { c.StopBody(bodyStopMix) }

// SetEye plays the blink for an expression and rearms the blink timer.
func (c *Controller) SetEye(motion int) {
	c.faceMotion = motion
	if c.set(TrackEye, eyeName(motion), false) {
		c.blinkTimer = blinkMin + time.Duration(c.rng.Int63n(int64(blinkMax-blinkMin)))
	}
}

// SetLipSync switches between the talking and the idle mouth. A positive
// motion also changes the current expression.
func (c *Controller) SetLipSync(talking bool, motion int) {
	if motion > 0 {
		c.faceMotion = motion
	}
	c.lipPlaying = talking
	name := lipName(c.faceMotion)
	if talking {
		name = lipVoiceName(c.faceMotion)
	}
	c.set(TrackLip, name, true)
}

// UpdateLipSync follows voice activity for the figure that is speaking.
func (c *Controller) UpdateLipSync(active bool) {
	if c.faceMotion == 0 {
		return
	}
	if active != c.lipPlaying {
		c.SetLipSync(active, 0)
	}
}

// Update advances every track by dt and fires the blink timer once the eye
// track has gone idle.
func (c *Controller) Update(dt time.Duration) {
	for i := range c.tracks {
		c.step(&c.tracks[i], dt)
	}
	if c.faceMotion != 0 && c.tracks[TrackEye].empty() && c.blinkTimer > 0 {
		c.blinkTimer -= dt
		if c.blinkTimer <= 0 {
			c.SetEye(c.faceMotion)
		}
	}
}

func (c *Controller) step(t *trackState, dt time.Duration) {
	if t.anim == nil {
		return
	}
	t.elapsed += dt
	done := false
	switch {
	case t.mixing:
		t.mixLeft -= dt
		done = t.mixLeft <= 0
	case !t.loop:
		done = t.elapsed >= t.anim.length()
	}
	if !done {
		return
	}
	fn := t.onComplete
	*t = trackState{}
	if fn != nil {
		fn()
	}
}
