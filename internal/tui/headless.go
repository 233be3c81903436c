package tui

import (
	"github.com/murenne/ADVLite/internal/adv"
	"go.uber.org/zap"
)

// Headless keeps the stage without drawing it and logs each line once it
// waits for a key.
type Headless struct {
	stage
	log   *zap.Logger
	lines int
}

var _ adv.Presenter = (*Headless)(nil)

func NewHeadless(log *zap.Logger) *Headless {
	return &Headless{stage: newStage(), log: log}
}

func (h *Headless) ShowKeyWait(on bool) {
	if on && !h.keyWait {
		h.lines++
		h.log.Info("line", zap.Int("n", h.lines), zap.String("name", h.name), zap.String("text", h.text))
	}
	h.keyWait = on
}

func (h *Headless) Sync() {}

// Lines is the number of lines that reached a key wait.
func (h *Headless) Lines() int { return h.lines }

// AutoInput presses advance on every frame and never skips.
type AutoInput struct{}

var _ adv.Input = AutoInput{}

func (AutoInput) Advance() bool            { return true }
func (AutoInput) Modifiers() adv.Modifiers { return adv.Modifiers{} }
