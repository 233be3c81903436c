package adv

import (
	"context"
	"testing"
	"time"

	"github.com/murenne/ADVLite/internal/config"
)

func TestComputeSkip(t *testing.T) {
	tests := []struct {
		name      string
		startSkip bool
		mods      Modifiers
		hard      bool
		soft      bool
	}{
		{"none", false, Modifiers{}, false, false},
		{"start skip", true, Modifiers{}, true, false},
		{"primary", false, Modifiers{Primary: true}, true, false},
		{"both", false, Modifiers{Primary: true, Secondary: true}, false, true},
		{"secondary only", false, Modifiers{Secondary: true}, false, false},
		{"start skip with both", true, Modifiers{Primary: true, Secondary: true}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := computeSkip(tt.startSkip, tt.mods)
			if f.hard != tt.hard || f.soft != tt.soft {
				t.Errorf("flags = %+v, want hard=%v soft=%v", f, tt.hard, tt.soft)
			}
		})
	}
}

func TestRevealCount(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		speed   float64
		total   int
		want    int
	}{
		{0, 30, 10, 0},
		{100 * time.Millisecond, 30, 10, 3},
		{time.Second, 30, 10, 10},
		{time.Second, 0, 10, 0},
		{-time.Second, 30, 10, 0},
	}
	for _, tt := range tests {
		if got := revealCount(tt.elapsed, tt.speed, tt.total); got != tt.want {
			t.Errorf("revealCount(%v, %v, %d) = %d, want %d", tt.elapsed, tt.speed, tt.total, got, tt.want)
		}
	}
}

func TestPrefixCountsRunes(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 0, ""},
		{"hello", 3, "hel"},
		{"hello", 9, "hello"},
		{"你好世界", 2, "你好"},
		{"a你b", 2, "a你"},
	}
	for _, tt := range tests {
		if got := prefix(tt.s, tt.n); got != tt.want {
			t.Errorf("prefix(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestAutoRest(t *testing.T) {
	cfg := config.PlaybackConfig{AutoModeMinWait: 1, AutoModeMojiWait: 0.5}
	if got := autoRest(cfg, "你好"); got != 2*time.Second {
		t.Errorf("autoRest = %v, want 2s", got)
	}
	if got := autoRest(cfg, ""); got != time.Second {
		t.Errorf("autoRest(empty) = %v, want 1s", got)
	}
}

func TestVoiceHold(t *testing.T) {
	a := newFakeAudio()
	a.voicePlaying = true
	a.level = 0.005

	playing := NewVoiceHold(config.VoiceHoldConfig{Mode: "playing"})
	activity := NewVoiceHold(config.VoiceHoldConfig{Mode: "activity", Threshold: 0.01})
	off := NewVoiceHold(config.VoiceHoldConfig{Mode: "off"})
	unknown := NewVoiceHold(config.VoiceHoldConfig{Mode: "bogus"})

	if !playing.Hold(a) || !unknown.Hold(a) {
		t.Error("playing mode should hold while the voice plays")
	}
	if activity.Hold(a) {
		t.Error("activity mode held on a quiet voice")
	}
	a.level = 0.2
	if !activity.Hold(a) {
		t.Error("activity mode released a loud voice")
	}
	if off.Hold(a) {
		t.Error("off mode held")
	}
	a.voicePlaying = false
	if playing.Hold(a) || activity.Hold(a) {
		t.Error("held after the voice stopped")
	}
}

func TestOffsetPlacement(t *testing.T) {
	p := NewOffsetPlacement(config.Defaults().Placement)
	for x, want := range map[float64]Band{300: BandBack, 450: BandBack, -300: BandFront, 0: BandMiddle, 299: BandMiddle} {
		if got := p.Band(x); got != want {
			t.Errorf("Band(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestTickerFramesStopsOnCancel(t *testing.T) {
	f := NewTickerFrames(time.Millisecond)
	defer f.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	dt, err := f.WaitUpdate(ctx)
	if err != nil || dt <= 0 {
		t.Fatalf("WaitUpdate = %v, %v", dt, err)
	}
	if dt > 4*time.Millisecond {
		t.Errorf("dt = %v, stalls should collapse to one interval", dt)
	}
	cancel()
	if _, err := f.WaitUpdate(ctx); err == nil {
		t.Error("WaitUpdate after cancel returned no error")
	}
	if err := f.WaitLateUpdate(ctx); err == nil {
		t.Error("WaitLateUpdate after cancel returned no error")
	}
}
