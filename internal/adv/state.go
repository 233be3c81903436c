// Package adv runs a scenario: it resumes the script coroutine once per
// frame, gates it on text reveal, input, timers and outstanding loads, and
// owns every object the script puts on screen.
//
// Everything in this package is accessed only from the goroutine calling
// Manager.Play. Loader goroutines reach it through the event bus.
package adv

import "fmt"

// PlaybackState is the scheduler's current gate.
type PlaybackState int

const (
	StateNone PlaybackState = iota
	StateScript
	StateWaitTask
	StateWaitText
	StateWaitKey
	StateWaitTime
	StateEnd
)

func (s PlaybackState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateScript:
		return "script"
	case StateWaitTask:
		return "wait_task"
	case StateWaitText:
		return "wait_text"
	case StateWaitKey:
		return "wait_key"
	case StateWaitTime:
		return "wait_time"
	case StateEnd:
		return "end"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// waiting reports whether s is one of the states a command can enter.
func (s PlaybackState) waiting() bool {
	return s >= StateWaitTask && s <= StateWaitTime
}

// ExtendedState is a one-shot request from the UI, consumed at the start
// of the next frame.
type ExtendedState int

const (
	ExNone ExtendedState = iota
	ExBackLog
	ExSummary
	ExSkip
	ExOption
)

func (e ExtendedState) String() string {
	switch e {
	case ExNone:
		return "none"
	case ExBackLog:
		return "backlog"
	case ExSummary:
		return "summary"
	case ExSkip:
		return "skip"
	case ExOption:
		return "option"
	}
	return fmt.Sprintf("ex(%d)", int(e))
}
