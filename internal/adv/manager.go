package adv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/murenne/ADVLite/internal/audio"
	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/core/scope"
	coresys "github.com/murenne/ADVLite/internal/core/system"
	"github.com/murenne/ADVLite/internal/locale"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/task"
	"github.com/murenne/ADVLite/internal/tween"
	"go.uber.org/zap"
)

// Deps are the collaborators of a Manager. Locale, Chapters, Placement,
// VoiceHold and Recorder are optional.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	Bus       *event.Bus
	Resources *resource.Manager
	Pool      *resource.RenderTargetPool
	Presenter Presenter
	Input     Input
	Audio     Audio
	Frames    Frames
	Engine    *scripting.Engine

	Locale    *locale.Localizer
	Chapters  *audio.ChapterTable
	Placement PlacementPolicy
	VoiceHold VoiceHoldPolicy
	Recorder  Recorder
}

// queued is a wait state entered while another one was still running.
type queued struct {
	state PlaybackState
	rest  time.Duration
}

// Manager is the frame scheduler. It implements scripting.Host: every
// command a script issues lands on one of its methods.
type Manager struct {
	d    Deps
	cfg  config.PlaybackConfig
	log  *zap.Logger
	hold VoiceHoldPolicy

	state PlaybackState
	ex    ExtendedState
	queue []queued
	stop  bool

	prev, now, delta time.Duration

	chapter   int
	text      string
	textRunes int
	name      string
	textStart time.Duration
	shown     int

	startSkip bool
	skip      skipFlags
	advance   bool
	auto      bool
	autoRest  time.Duration
	waitRest  time.Duration

	root        *scope.Scope
	objects     *Registry
	tasks       *task.Registry
	anim        *tween.List
	runner      *coresys.Runner
	prepared    []disposer
	sounds      []int64
	backlog     Backlog
	screenTween *tween.Tween
	windowTween *tween.Tween

	recordCtx context.Context
	recording sync.WaitGroup
}

// New builds a manager and binds it as the script host of d.Engine.
func New(d Deps) *Manager {
	m := &Manager{
		d:      d,
		cfg:    d.Config.Playback,
		log:    d.Log,
		hold:   d.VoiceHold,
		tasks:  task.NewRegistry(),
		anim:   tween.NewList(),
		runner: coresys.NewRunner(),
	}
	if m.hold == nil {
		m.hold = NewVoiceHold(d.Config.VoiceHold)
	}
	m.runner.Register(&animateSystem{m: m})
	m.runner.Register(&figureSystem{m: m})
	m.runner.Register(&renderSystem{m: m})
	m.runner.Register(&presentSystem{m: m})
	d.Engine.Bind(m)
	return m
}

func (m *Manager) State() PlaybackState     { return m.state }
func (m *Manager) Auto() bool               { return m.auto }
func (m *Manager) Objects() *Registry       { return m.objects }
func (m *Manager) Tasks() *task.Registry    { return m.tasks }
func (m *Manager) Animations() *tween.List  { return m.anim }
func (m *Manager) Backlog() []BackLogItem   { return m.backlog.Items() }
func (m *Manager) Now() time.Duration       { return m.now }
func (m *Manager) StartSkip() bool          { return m.startSkip }
func (m *Manager) Request(ex ExtendedState) { m.ex = ex }
func (m *Manager) Chapter() int             { return m.chapter }

// Play runs script from its entry function until it ends, ctx is done or
// the skip request is made. startLine > 0 fast-forwards to that line.
// Cancellation is a normal end: Play then returns nil. Whatever the
// outcome, every object and prepared resource is released before return.
func (m *Manager) Play(ctx context.Context, script string, chapter, startLine int) error {
	m.reset(ctx, chapter)
	defer m.cleanup()

	m.startSkip = startLine > 0
	var err error
	if startLine > 0 {
		err = m.d.Engine.LoadScriptWithSkip(script, startLine)
	} else {
		err = m.d.Engine.LoadScript(script)
	}
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", script, err)
	}
	if err := m.d.Engine.Start(m.cfg.StartEntry); err != nil {
		m.log.Error("scenario has no entry function",
			zap.String("script", script),
			zap.String("entry", m.cfg.StartEntry),
		)
		return err
	}

	m.log.Info("adv started",
		zap.String("script", script),
		zap.Int("chapter", chapter),
		zap.Int("start_line", startLine),
	)
	m.transition(queued{state: StateScript})

	err = m.loop(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		m.log.Info("adv cancelled", zap.String("script", script))
		return nil
	}
	if err != nil {
		return err
	}
	m.log.Info("adv ended", zap.String("script", script), zap.Int("lines", m.backlog.Len()))
	return nil
}

func (m *Manager) reset(ctx context.Context, chapter int) {
	m.root = scope.NewRoot(ctx)
	m.objects = NewRegistry(m.root, &m.d, m.tasks, m.anim)
	m.recordCtx = context.WithoutCancel(ctx)
	m.chapter = chapter
	m.state, m.ex, m.queue, m.stop = StateNone, ExNone, nil, false
	m.prev, m.now, m.delta = 0, 0, 0
	m.text, m.textRunes, m.name, m.shown, m.textStart = "", 0, "", 0, 0
	m.skip, m.advance, m.auto = skipFlags{}, false, false
	m.backlog.Clear()
}

// cleanup runs when playback ends for any reason.
func (m *Manager) cleanup() {
	m.d.Audio.StopBGM()
	m.d.Audio.StopVoice()
	for _, id := range m.sounds {
		m.d.Audio.StopSound(id)
	}
	m.sounds = nil

	m.root.Cancel()
	m.anim.KillAll()
	m.tasks.Clear()
	m.screenTween, m.windowTween = nil, nil
	m.releasePrepared()
	m.d.Audio.Release()
	m.d.Presenter.ShowKeyWait(false)
	m.recording.Wait()
	m.transition(queued{state: StateEnd})
}

// loop is the frame loop. It returns nil once the state reaches End and
// the context error when ctx is done at a wait point.
func (m *Manager) loop(ctx context.Context) error {
	for {
		dt, err := m.d.Frames.WaitUpdate(ctx)
		if err != nil {
			return err
		}
		m.stop = false

		m.drainExtended()

		m.d.Bus.Dispatch()
		m.tasks.Purge()
		m.anim.Purge()

		if m.state != StateEnd {
			m.stateLoop(dt)
		}
		if m.state == StateEnd {
			return nil
		}

		if err := m.d.Frames.WaitLateUpdate(ctx); err != nil {
			return err
		}
		m.runner.Tick(dt)
	}
}

// drainExtended consumes one UI request and resets it, so the state loop
// still runs on the same frame. Skip ends playback.
func (m *Manager) drainExtended() {
	if r, ok := m.d.Input.(Requester); ok {
		if ex := r.Request(); ex != ExNone {
			m.ex = ex
		}
	}
	if m.ex == ExNone {
		return
	}
	ex := m.ex
	m.ex = ExNone
	m.log.Info("extended state requested", zap.Stringer("ex", ex))
	if ex == ExSkip {
		m.transition(queued{state: StateEnd})
	}
}

func (m *Manager) stateLoop(dt time.Duration) {
	m.prev = m.now
	m.now += dt
	m.delta = m.now - m.prev

	m.skip = computeSkip(m.startSkip, m.d.Input.Modifiers())
	m.advance = m.d.Input.Advance()

	for !m.stop {
		switch m.state {
		case StateScript:
			m.stepScript()
		case StateWaitTask:
			m.stepTask()
		case StateWaitText:
			m.stepText()
		case StateWaitKey:
			m.stepKey()
		case StateWaitTime:
			m.stepTime()
		default:
			m.stop = true
		}
	}
}

func (m *Manager) stepScript() {
	if m.d.Engine.Finished() {
		m.transition(queued{state: StateEnd})
		return
	}
	if err := m.d.Engine.Resume(m.delta); err != nil {
		m.log.Error("script error", zap.String("where", m.d.Engine.Where()), zap.Error(err))
		m.transition(queued{state: StateEnd})
		return
	}
	m.stop = true
}

func (m *Manager) stepTask() {
	m.tasks.Purge()
	if m.tasks.Empty() && m.anim.Pending() == 0 {
		m.next()
		return
	}
	m.stop = true
}

func (m *Manager) stepText() {
	if m.skip.any() || m.consumeAdvance() {
		m.shown = m.textRunes
	} else {
		m.shown = revealCount(m.now-m.textStart, m.cfg.TextSpeed, m.textRunes)
	}
	m.d.Presenter.SetText(prefix(m.text, m.shown))
	if m.shown >= m.textRunes {
		m.next()
		return
	}
	m.stop = true
}

func (m *Manager) stepKey() {
	m.autoRest -= m.delta
	floor := seconds(m.cfg.AutoModeMinWait)
	if m.auto && m.autoRest < floor && m.hold.Hold(m.d.Audio) {
		m.autoRest = floor
	}
	if m.skip.any() || m.consumeAdvance() || (m.auto && m.autoRest <= 0) {
		m.d.Presenter.ShowKeyWait(false)
		m.next()
		return
	}
	m.stop = true
}

func (m *Manager) stepTime() {
	m.waitRest -= m.delta
	if m.waitRest <= 0 || m.skip.hard {
		m.next()
		return
	}
	m.stop = true
}

// consumeAdvance takes this frame's advance input.
func (m *Manager) consumeAdvance() bool {
	if !m.advance {
		return false
	}
	m.advance = false
	return true
}

// enter switches to a wait state, or queues it behind the wait already in
// progress.
func (m *Manager) enter(q queued) {
	if !q.state.waiting() {
		m.log.Warn("not a wait state", zap.Stringer("state", q.state))
		return
	}
	if m.state == StateScript {
		m.transition(q)
		return
	}
	m.queue = append(m.queue, q)
}

// next leaves the current gate for the first queued state, or Script.
func (m *Manager) next() {
	q := queued{state: StateScript}
	if len(m.queue) > 0 {
		q = m.queue[0]
		m.queue = m.queue[1:]
	}
	m.transition(q)
}

func (m *Manager) transition(q queued) {
	from := m.state
	if from == StateEnd && q.state != StateEnd {
		m.log.Warn("state change after end ignored", zap.Stringer("to", q.state))
		return
	}
	m.state = q.state
	switch q.state {
	case StateWaitKey:
		m.autoRest = autoRest(m.cfg, m.text)
		m.d.Presenter.ShowKeyWait(true)
	case StateWaitTime:
		m.waitRest = q.rest
	case StateEnd:
		m.queue = nil
		m.stop = true
	}
	if from != q.state {
		m.log.Debug("state", zap.Stringer("from", from), zap.Stringer("to", q.state))
		event.Emit(m.d.Bus, event.StateChanged{From: from.String(), To: q.state.String()})
	}
}

// record hands a backlog line to the recorder. The write outlives
// cancellation of the playback but not the record timeout; cleanup waits
// for it.
func (m *Manager) record(seq int, it BackLogItem) {
	rec := m.d.Recorder
	if rec == nil {
		return
	}
	parent, timeout, log := m.recordCtx, m.cfg.RecordTimeout, m.log
	m.recording.Add(1)
	go func() {
		defer m.recording.Done()
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		if err := rec.RecordLine(ctx, seq, it); err != nil {
			log.Warn("backlog record failed", zap.Int("seq", seq), zap.Error(err))
		}
	}()
}

func (m *Manager) releasePrepared() {
	for _, h := range m.prepared {
		h.Dispose()
	}
	m.prepared = nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
