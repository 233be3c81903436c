package adv

import (
	"slices"

	"github.com/murenne/ADVLite/internal/config"
)

// Band is the part of the character layer a view is placed in.
type Band int

const (
	BandMiddle Band = iota
	BandBack
	BandFront
)

// PlacementPolicy assigns a band from a view's horizontal position.
type PlacementPolicy interface {
	Band(x float64) Band
}

// OffsetPlacement sends exact X offsets to the back or the front band.
type OffsetPlacement struct {
	Back  []float64
	Front []float64
}

func NewOffsetPlacement(cfg config.PlacementConfig) OffsetPlacement {
	return OffsetPlacement{Back: cfg.BackOffsets, Front: cfg.FrontOffsets}
}

func (p OffsetPlacement) Band(x float64) Band {
	switch {
	case slices.Contains(p.Back, x):
		return BandBack
	case slices.Contains(p.Front, x):
		return BandFront
	}
	return BandMiddle
}

// stack is a bottom-first list of surface ids with sibling moves.
type stack []int

func (s stack) index(id int) int { return slices.Index(s, id) }

// moveTo moves id to position i, clamped to the stack.
func (s stack) moveTo(id, i int) stack {
	at := s.index(id)
	if at < 0 {
		return s
	}
	s = slices.Delete(s, at, at+1)
	i = max(0, min(i, len(s)))
	return slices.Insert(s, i, id)
}

func (s stack) first(id int) stack { return s.moveTo(id, 0) }
func (s stack) last(id int) stack  { return s.moveTo(id, len(s)) }

func (s stack) remove(id int) stack {
	if at := s.index(id); at >= 0 {
		return slices.Delete(s, at, at+1)
	}
	return s
}
