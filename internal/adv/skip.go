package adv

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/murenne/ADVLite/internal/config"
)

// skipFlags are recomputed once per frame.
type skipFlags struct {
	hard bool // start skip, or primary held alone
	soft bool // primary and secondary held
}

func computeSkip(startSkip bool, m Modifiers) skipFlags {
	return skipFlags{
		hard: startSkip || (m.Primary && !m.Secondary),
		soft: m.Primary && m.Secondary,
	}
}

func (f skipFlags) any() bool { return f.hard || f.soft }

// revealCount is how many runes of a line are visible elapsed after it
// started, at speed runes per second.
func revealCount(elapsed time.Duration, speed float64, total int) int {
	if elapsed <= 0 || speed <= 0 {
		return 0
	}
	n := int(math.Floor(elapsed.Seconds() * speed))
	return min(n, total)
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for range n {
		if i >= len(s) {
			break
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// autoRest is how long auto mode keeps a line on screen before advancing.
func autoRest(cfg config.PlaybackConfig, text string) time.Duration {
	sec := cfg.AutoModeMinWait + float64(utf8.RuneCountInString(text))*cfg.AutoModeMojiWait
	return time.Duration(sec * float64(time.Second))
}

// VoiceHoldPolicy decides whether auto mode waits for the voice line.
type VoiceHoldPolicy interface {
	Hold(a Audio) bool
}

type holdPlaying struct{}

func (holdPlaying) Hold(a Audio) bool { return a.IsVoicePlaying() }

type holdActivity struct{ threshold float64 }

func (h holdActivity) Hold(a Audio) bool {
	return a.IsVoicePlaying() && a.VoiceLevel() > h.threshold
}

type holdOff struct{}

func (holdOff) Hold(Audio) bool { return false }

// NewVoiceHold returns the policy named by cfg.Mode. Unknown modes fall
// back to "playing".
func NewVoiceHold(cfg config.VoiceHoldConfig) VoiceHoldPolicy {
	switch cfg.Mode {
	case "activity":
		return holdActivity{threshold: cfg.Threshold}
	case "off":
		return holdOff{}
	}
	return holdPlaying{}
}
