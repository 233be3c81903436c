package adv

import (
	"context"
	"slices"
)

// BackLogItem is one line as it was shown.
type BackLogItem struct {
	CharaID   int
	CharaName string
	TextID    int
	Text      string
}

// Backlog keeps every line of the current playback in order.
type Backlog struct {
	items []BackLogItem
}

func (b *Backlog) Add(it BackLogItem) int {
	b.items = append(b.items, it)
	return len(b.items) - 1
}

func (b *Backlog) Len() int             { return len(b.items) }
func (b *Backlog) Items() []BackLogItem { return slices.Clone(b.items) }
func (b *Backlog) Clear()               { b.items = b.items[:0] }

// Last returns the most recent line.
func (b *Backlog) Last() (BackLogItem, bool) {
	if len(b.items) == 0 {
		return BackLogItem{}, false
	}
	return b.items[len(b.items)-1], true
}

// Recorder stores backlog lines outside the process. RecordLine runs on a
// background goroutine; seq is the line's index in the backlog.
type Recorder interface {
	RecordLine(ctx context.Context, seq int, it BackLogItem) error
}
