// Package tui presents a playback on a terminal through tcell, or headless
// through the log.
package tui

import (
	"slices"

	"github.com/murenne/ADVLite/internal/adv"
)

// surface is a positioned piece of content.
type surface struct {
	id        int
	content   adv.Content
	x, y      float64
	alpha     float64
	destroyed bool
}

func (s *surface) Position() (float64, float64) { return s.x, s.y }
func (s *surface) SetPosition(x, y float64)     { s.x, s.y = x, y }
func (s *surface) Alpha() float64               { return s.alpha }
func (s *surface) SetAlpha(a float64)           { s.alpha = min(max(a, 0), 1) }
func (s *surface) Destroy()                     { s.destroyed = true }

// layer keeps its surfaces bottom first. Destroyed surfaces are dropped on
// the next Attach, Restack or snapshot.
type layer struct {
	level    int
	surfaces []*surface
}

func (l *layer) Attach(id int, c adv.Content, x, y float64) adv.Surface {
	l.compact()
	s := &surface{id: id, content: c, x: x, y: y, alpha: 1}
	l.surfaces = append(l.surfaces, s)
	return s
}

// Restack moves the listed surfaces to the top in the given order. Surfaces
// not listed keep their relative order below them.
func (l *layer) Restack(ids []int) {
	l.compact()
	rank := make(map[int]int, len(ids))
	for i, id := range ids {
		rank[id] = i + 1
	}
	slices.SortStableFunc(l.surfaces, func(a, b *surface) int {
		return rank[a.id] - rank[b.id]
	})
}

func (l *layer) compact() {
	l.surfaces = slices.DeleteFunc(l.surfaces, func(s *surface) bool { return s.destroyed })
}

// snapshot returns the live surfaces bottom first.
func (l *layer) snapshot() []*surface {
	l.compact()
	return slices.Clone(l.surfaces)
}

// stage is the presenter state shared by the terminal and headless views.
type stage struct {
	name    string
	text    string
	keyWait bool
	window  bool
	layers  map[int]*layer
	fade    *surface
	panel   *surface
}

func newStage() stage {
	return stage{
		layers: make(map[int]*layer),
		fade:   &surface{alpha: 1},
		panel:  &surface{alpha: 1},
	}
}

func (s *stage) Layer(level int) adv.Layer {
	l, ok := s.layers[level]
	if !ok {
		l = &layer{level: level}
		s.layers[level] = l
	}
	return l
}

func (s *stage) Screen() adv.Surface     { return s.fade }
func (s *stage) TextWindow() adv.Surface { return s.panel }

// levels returns the layer levels bottom first.
func (s *stage) levels() []int {
	out := make([]int, 0, len(s.layers))
	for lv := range s.layers {
		out = append(out, lv)
	}
	slices.Sort(out)
	return out
}

func (s *stage) SetName(name string)      { s.name = name }
func (s *stage) SetText(text string)      { s.text = text }
func (s *stage) ShowKeyWait(on bool)      { s.keyWait = on }
func (s *stage) ShowTextWindow(open bool) { s.window = open }
