package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/murenne/ADVLite/internal/adv"
	"go.uber.org/zap"
)

// Terminal draws the stage on a tcell screen and reads the keyboard.
//
// Keys: Enter, Space or a left click advance. Tab toggles hard skip and
// Shift+Tab toggles the soft skip modifier; a terminal cannot report held
// keys. b, m and o ask for the backlog, summary and option menus. Esc, q
// and Ctrl+C end the playback.
type Terminal struct {
	stage
	screen tcell.Screen
	log    *zap.Logger

	events    chan tcell.Event
	quit      chan struct{}
	closeOnce sync.Once

	advance bool
	button  bool
	mods    adv.Modifiers
	request adv.ExtendedState
	frame   int
}

var (
	_ adv.Presenter = (*Terminal)(nil)
	_ adv.Input     = (*Terminal)(nil)
	_ adv.Requester = (*Terminal)(nil)
)

// NewTerminal takes over the controlling terminal. Close restores it.
func NewTerminal(log *zap.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewTerminalOn(screen, log)
}

// NewTerminalOn initializes the given screen and starts reading its events.
func NewTerminalOn(screen tcell.Screen, log *zap.Logger) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	t := &Terminal{
		stage:  newStage(),
		screen: screen,
		log:    log,
		events: make(chan tcell.Event, 100),
		quit:   make(chan struct{}),
	}
	go t.poll()
	return t, nil
}

func (t *Terminal) poll() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.quit:
			return
		}
	}
}

// Close stops the event reader and restores the terminal.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.screen.Fini()
	})
}

// drain applies every event received since the last call.
func (t *Terminal) drain() {
	for {
		select {
		case ev := <-t.events:
			t.handle(ev)
		default:
			return
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.key(ev)
	case *tcell.EventMouse:
		down := ev.Buttons()&tcell.Button1 != 0
		if down && !t.button {
			t.advance = true
		}
		t.button = down
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Terminal) key(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		t.advance = true
	case tcell.KeyTab:
		t.mods.Primary = !t.mods.Primary
		t.log.Debug("hard skip toggled", zap.Bool("on", t.mods.Primary))
	case tcell.KeyBacktab:
		t.mods.Secondary = !t.mods.Secondary
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.request = adv.ExSkip
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			t.advance = true
		case 'b':
			t.request = adv.ExBackLog
		case 'm':
			t.request = adv.ExSummary
		case 'o':
			t.request = adv.ExOption
		case 'q':
			t.request = adv.ExSkip
		}
	}
}

// Request is polled first in a frame, so it also takes in new events.
func (t *Terminal) Request() adv.ExtendedState {
	t.drain()
	r := t.request
	t.request = adv.ExNone
	return r
}

func (t *Terminal) Advance() bool {
	t.drain()
	a := t.advance
	t.advance = false
	return a
}

func (t *Terminal) Modifiers() adv.Modifiers { return t.mods }

// Sync redraws the whole stage.
func (t *Terminal) Sync() {
	t.frame++
	t.screen.Clear()
	w, h := t.screen.Size()
	c := &canvas{screen: t.screen, w: w, h: h, shade: 1 - t.fade.alpha}
	if c.shade > 0 {
		for _, lv := range t.levels() {
			for _, s := range t.layers[lv].snapshot() {
				c.surface(s)
			}
		}
		if t.window {
			c.window(t.panel, t.name, t.text, t.keyWait && t.frame/30%2 == 0)
		}
	}
	t.screen.Show()
}
