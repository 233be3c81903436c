// Package audio plays BGM, voice and sound effects through one beep mixer.
// Clips must be prepared before they can be played; preparation goes
// through the resource manager so it can be awaited like any other load.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/task"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

type seChannel struct {
	id   int64
	ctrl *beep.Ctrl
	done bool
}

func (c *seChannel) playing() bool { return c.ctrl != nil && !c.done }

// Mixer is driven from the owner goroutine. When a speaker is open it pulls
// samples from its own goroutine; mu guards everything the stream touches.
type Mixer struct {
	mu    sync.Mutex
	mixer beep.Mixer
	bgm   *beep.Ctrl
	voice *meter
	vctrl *beep.Ctrl
	se    []*seChannel
	ids   map[int64]*seChannel
	next  int64

	cfg     config.AudioConfig
	res     *resource.Manager
	log     *zap.Logger
	clips   map[string]*Clip
	handles map[string]*resource.Handle[*Clip]
	open    bool
	scratch [][2]float64
}

func NewMixer(cfg config.AudioConfig, res *resource.Manager, log *zap.Logger) *Mixer {
	n := cfg.SEChannels
	if n <= 0 {
		n = 8
	}
	m := &Mixer{
		se:      make([]*seChannel, n),
		ids:     make(map[int64]*seChannel),
		next:    1,
		cfg:     cfg,
		res:     res,
		log:     log,
		clips:   make(map[string]*Clip),
		handles: make(map[string]*resource.Handle[*Clip]),
	}
	for i := range m.se {
		m.se[i] = &seChannel{}
	}
	return m
}

// Open starts the output device. Without it the mixer is advanced by
// Advance, which keeps playback timing identical on headless runs.
func (m *Mixer) Open() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(m)
	m.open = true
	return nil
}

// Close stops all playback and shuts the device down.
func (m *Mixer) Close() {
	m.StopAll()
	if m.open {
		speaker.Close()
		m.open = false
	}
}

// Stream implements beep.Streamer.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mixer.Stream(samples)
	return len(samples), true
}

func (m *Mixer) Err() error { return nil }

// Advance consumes dt worth of samples when no device is pulling them.
func (m *Mixer) Advance(dt time.Duration) {
	if m.open || dt <= 0 {
		return
	}
	n := sampleRate.N(dt)
	if cap(m.scratch) < 512 {
		m.scratch = make([][2]float64, 512)
	}
	for n > 0 {
		chunk := m.scratch[:min(n, len(m.scratch))]
		m.Stream(chunk)
		n -= len(chunk)
	}
}

// Prepare loads file into the clip cache. It returns nil when the clip is
// already cached or being loaded, otherwise the pending load.
func (m *Mixer) Prepare(file string) task.Task {
	if _, ok := m.handles[file]; ok {
		return nil
	}
	h := resource.Load[*Clip](m.res, resource.Audio(file))
	m.handles[file] = h
	h.Then(func(c *Clip, err error) {
		if err != nil {
			m.log.Error("audio preload failed", zap.String("file", file), zap.Error(err))
			return
		}
		m.clips[file] = c
		m.log.Debug("audio preloaded", zap.String("file", file))
	})
	if h.Done() {
		return nil
	}
	return h
}

// PrepareChapter preloads every clip the chapter lists and returns the
// loads still pending.
func (m *Mixer) PrepareChapter(chapters *ChapterTable, name string) []task.Task {
	c := chapters.Get(name)
	if c == nil {
		m.log.Warn("no audio config for chapter", zap.String("chapter", name))
		return nil
	}
	var pending []task.Task
	for _, f := range c.Files() {
		if t := m.Prepare(f); t != nil {
			pending = append(pending, t)
		}
	}
	m.log.Info("preparing chapter audio", zap.String("chapter", name), zap.Int("clips", len(c.Files())))
	return pending
}

// Prepared reports whether file is ready to play.
func (m *Mixer) Prepared(file string) bool {
	_, ok := m.clips[file]
	return ok
}

// Release stops playback and drops every prepared clip.
func (m *Mixer) Release() {
	m.StopAll()
	for file, h := range m.handles {
		h.Dispose()
		delete(m.handles, file)
	}
	clear(m.clips)
}

func (m *Mixer) PlayBGM(file string) {
	c, ok := m.clips[file]
	if !ok {
		m.log.Error("bgm not preloaded", zap.String("file", file))
		return
	}
	ctrl := &beep.Ctrl{Streamer: withVolume(c.streamer(sampleRate, true), m.cfg.BGMVolume)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bgm != nil {
		m.bgm.Streamer = nil
	}
	m.bgm = ctrl
	m.mixer.Add(ctrl)
}

func (m *Mixer) StopBGM() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bgm != nil {
		m.bgm.Streamer = nil
		m.bgm = nil
	}
}

// PlayVoice replaces the current voice line.
func (m *Mixer) PlayVoice(file string) {
	c, ok := m.clips[file]
	if !ok {
		m.log.Error("voice not preloaded", zap.String("file", file))
		return
	}
	v := newMeter(withVolume(c.streamer(sampleRate, false), m.cfg.VoiceVol))
	ctrl := &beep.Ctrl{Streamer: v}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopVoiceLocked()
	m.voice, m.vctrl = v, ctrl
	m.mixer.Add(ctrl)
}

func (m *Mixer) StopVoice() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopVoiceLocked()
}

func (m *Mixer) stopVoiceLocked() {
	if m.vctrl != nil {
		m.vctrl.Streamer = nil
	}
	m.voice, m.vctrl = nil, nil
}

func (m *Mixer) IsVoicePlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voice != nil && !m.voice.done
}

// VoiceLevel returns the mean absolute amplitude of the most recent voice
// samples, zero when no voice is playing.
func (m *Mixer) VoiceLevel() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voice == nil {
		return 0
	}
	return m.voice.level()
}

// PlaySound starts a sound effect on a free channel and returns its id.
// It returns -1 when the clip is not prepared or every channel is busy.
func (m *Mixer) PlaySound(file string, loop bool, volume float64) int64 {
	c, ok := m.clips[file]
	if !ok {
		m.log.Warn("sound not preloaded", zap.String("file", file))
		return -1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ch *seChannel
	for _, s := range m.se {
		if !s.playing() {
			ch = s
			break
		}
	}
	if ch == nil {
		m.log.Warn("no free sound channel", zap.String("file", file))
		return -1
	}
	if ch.ctrl != nil {
		ch.ctrl.Streamer = nil
		delete(m.ids, ch.id)
	}
	ctrl := &beep.Ctrl{}
	ctrl.Streamer = beep.Seq(
		withVolume(c.streamer(sampleRate, loop), volume*m.cfg.SEVolume),
		beep.Callback(func() {
			if ch.ctrl == ctrl {
				ch.done = true
			}
		}),
	)
	ch.id, ch.ctrl, ch.done = m.next, ctrl, false
	m.next++
	m.ids[ch.id] = ch
	m.mixer.Add(ctrl)
	return ch.id
}

// StopSound stops one sound effect. Unknown ids are ignored.
func (m *Mixer) StopSound(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.ids[id]
	if !ok {
		return
	}
	delete(m.ids, id)
	ch.ctrl.Streamer = nil
	ch.ctrl, ch.done = nil, false
}

func (m *Mixer) StopAllSounds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopSoundsLocked()
}

func (m *Mixer) stopSoundsLocked() {
	for _, ch := range m.se {
		if ch.ctrl != nil {
			ch.ctrl.Streamer = nil
		}
		ch.ctrl, ch.done = nil, false
	}
	clear(m.ids)
}

// StopAll silences every channel.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bgm != nil {
		m.bgm.Streamer = nil
		m.bgm = nil
	}
	m.stopVoiceLocked()
	m.stopSoundsLocked()
	m.mixer.Clear()
}

// ActiveSounds returns how many sound channels are busy.
func (m *Mixer) ActiveSounds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ch := range m.se {
		if ch.playing() {
			n++
		}
	}
	return n
}

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
