package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/task"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testFormat = beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}

// constant streams n samples of amplitude v.
type constant struct {
	n int
	v float64
}

func (c *constant) Stream(samples [][2]float64) (int, bool) {
	if c.n <= 0 {
		return 0, false
	}
	k := min(c.n, len(samples))
	for i := range samples[:k] {
		samples[i] = [2]float64{c.v, -c.v}
	}
	c.n -= k
	return k, true
}

func (c *constant) Err() error { return nil }

func clipOf(d time.Duration, v float64) *Clip {
	return NewClip(testFormat, &constant{n: sampleRate.N(d), v: v})
}

// clipLoader serves clips from memory.
type clipLoader struct {
	clips    map[string]*Clip
	released int
}

func (l *clipLoader) Load(_ context.Context, key resource.Key) (any, error) {
	c, ok := l.clips[key.Path]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return c, nil
}

func (l *clipLoader) Release(resource.Key, any) { l.released++ }

type harness struct {
	bus    *event.Bus
	res    *resource.Manager
	loader *clipLoader
	mixer  *Mixer
}

func newHarness(t *testing.T, cfg config.AudioConfig, log *zap.Logger) *harness {
	t.Helper()
	bus := event.NewBus()
	loader := &clipLoader{clips: map[string]*Clip{
		"bgm01":  clipOf(time.Second, 0.2),
		"v001":   clipOf(100*time.Millisecond, 0.5),
		"se_hit": clipOf(50*time.Millisecond, 0.3),
	}}
	res := resource.NewManager(context.Background(), loader, bus, log)
	return &harness{bus: bus, res: res, loader: loader, mixer: NewMixer(cfg, res, log)}
}

// await dispatches continuations until every task resolves.
func (h *harness) await(t *testing.T, tasks ...task.Task) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.bus.Dispatch()
		done := true
		for _, tk := range tasks {
			if tk.Status() == task.Pending {
				done = false
			}
		}
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("tasks still pending")
		}
		time.Sleep(time.Millisecond)
	}
}

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{BGMVolume: 1, VoiceVol: 1, SEVolume: 1, SEChannels: 2}
}

func TestDecodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, &constant{n: 4410, v: 0.5}, testFormat); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	f.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	v, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	c := v.(*Clip)
	if c.Len() != 4410 || c.Duration() != 100*time.Millisecond {
		t.Errorf("len=%d duration=%v", c.Len(), c.Duration())
	}
	if _, err := DecodeWAV([]byte("not a wav")); err == nil {
		t.Error("garbage decoded")
	}
}

func TestPlayRequiresPreload(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newHarness(t, testAudioConfig(), zap.New(core))
	h.mixer.PlayBGM("bgm01")
	h.mixer.PlayVoice("v001")
	if id := h.mixer.PlaySound("se_hit", false, 1); id != -1 {
		t.Errorf("PlaySound = %d, want -1", id)
	}
	if logs.FilterMessage("bgm not preloaded").Len() != 1 || logs.FilterMessage("voice not preloaded").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}
	if h.mixer.IsVoicePlaying() {
		t.Error("voice playing without a clip")
	}
}

func TestVoiceLevelAndEnd(t *testing.T) {
	h := newHarness(t, testAudioConfig(), zap.NewNop())
	pending := h.mixer.Prepare("v001")
	if pending == nil {
		t.Fatal("first Prepare returned no pending load")
	}
	if h.mixer.Prepare("v001") != nil {
		t.Error("second Prepare started another load")
	}
	h.await(t, pending)
	if !h.mixer.Prepared("v001") {
		t.Fatal("clip not cached after load")
	}

	h.mixer.PlayVoice("v001")
	if !h.mixer.IsVoicePlaying() {
		t.Fatal("voice not playing")
	}
	h.mixer.Advance(20 * time.Millisecond)
	if lv := h.mixer.VoiceLevel(); lv < 0.45 || lv > 0.55 {
		t.Errorf("VoiceLevel = %v, want about 0.5", lv)
	}
	h.mixer.Advance(200 * time.Millisecond)
	if h.mixer.IsVoicePlaying() || h.mixer.VoiceLevel() != 0 {
		t.Error("voice still active after its clip ended")
	}
}

func TestSoundChannels(t *testing.T) {
	h := newHarness(t, testAudioConfig(), zap.NewNop())
	h.await(t, h.mixer.Prepare("se_hit"))

	a := h.mixer.PlaySound("se_hit", true, 1)
	b := h.mixer.PlaySound("se_hit", true, 0.5)
	if a != 1 || b != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a, b)
	}
	if id := h.mixer.PlaySound("se_hit", false, 1); id != -1 {
		t.Errorf("PlaySound with every channel busy = %d, want -1", id)
	}
	h.mixer.StopSound(a)
	h.mixer.StopSound(a)
	if c := h.mixer.PlaySound("se_hit", false, 1); c != 3 {
		t.Errorf("PlaySound after stop = %d, want 3", c)
	}
	if n := h.mixer.ActiveSounds(); n != 2 {
		t.Errorf("ActiveSounds = %d, want 2", n)
	}
	// The one-shot ends; the loop keeps its channel.
	h.mixer.Advance(100 * time.Millisecond)
	if n := h.mixer.ActiveSounds(); n != 1 {
		t.Errorf("ActiveSounds after one-shot ended = %d, want 1", n)
	}
	h.mixer.StopAllSounds()
	if n := h.mixer.ActiveSounds(); n != 0 {
		t.Errorf("ActiveSounds after StopAllSounds = %d", n)
	}
}

func TestPrepareChapterAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapters.yaml")
	doc := "chapters:\n  - name: ch01\n    bgm: [bgm01]\n    voice: [v001]\n    sound: [se_hit, missing]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadChapterTable(path)
	if err != nil {
		t.Fatalf("LoadChapterTable: %v", err)
	}
	if table.Count() != 1 {
		t.Fatalf("Count = %d", table.Count())
	}

	core, logs := observer.New(zapcore.WarnLevel)
	h := newHarness(t, testAudioConfig(), zap.New(core))
	pending := h.mixer.PrepareChapter(table, "ch01")
	if len(pending) != 4 {
		t.Fatalf("pending = %d, want 4", len(pending))
	}
	h.await(t, pending...)
	if !h.mixer.Prepared("bgm01") || h.mixer.Prepared("missing") {
		t.Error("prepared set wrong")
	}
	if logs.FilterMessage("audio preload failed").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}
	if h.mixer.PrepareChapter(table, "nope") != nil {
		t.Error("unknown chapter returned loads")
	}

	h.mixer.PlayBGM("bgm01")
	h.mixer.Release()
	if h.res.Len() != 0 {
		t.Errorf("resource manager still holds %d keys", h.res.Len())
	}
	if h.loader.released != 3 {
		t.Errorf("released = %d, want 3", h.loader.released)
	}
	if h.mixer.Prepared("bgm01") {
		t.Error("clip survived Release")
	}
}

func TestMissingChapterTable(t *testing.T) {
	table, err := LoadChapterTable(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || table.Count() != 0 {
		t.Errorf("table=%v err=%v", table, err)
	}
}
