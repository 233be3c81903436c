// Package figure animates layered character figures. A Skeleton is a
// static description (parts and named animations) decoded from YAML; a
// Controller plays animations on fixed tracks and renders the posed
// figure into an off-screen target.
package figure

import (
	"fmt"
	"image/color"
	"time"

	"github.com/murenne/ADVLite/internal/resource"
	"gopkg.in/yaml.v3"
)

// Part is one rectangle of the figure in skeleton space.
type Part struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`

	fill color.NRGBA
}

// Animation moves or squashes one part. The effect peaks halfway through
// each cycle: offset (DX, DY) and vertical scale ScaleY at full weight.
// A nil ScaleY keeps the part's height; zero closes it completely.
type Animation struct {
	Name     string   `yaml:"name"`
	Part     string   `yaml:"part"`
	Duration float64  `yaml:"duration"` // seconds
	DX       float64  `yaml:"dx"`
	DY       float64  `yaml:"dy"`
	ScaleY   *float64 `yaml:"scale_y"`
}

func (a *Animation) length() time.Duration {
	return time.Duration(a.Duration * float64(time.Second))
}

type Skeleton struct {
	Name       string      `yaml:"name"`
	Width      int         `yaml:"width"`
	Height     int         `yaml:"height"`
	Parts      []Part      `yaml:"parts"`
	Animations []Animation `yaml:"animations"`

	anims map[string]*Animation
	parts map[string]int
}

// Decode parses a skeleton document. It has the resource.Decoder
// signature so it can be registered for resource.KindFigure.
func Decode(data []byte) (any, error) {
	var s Skeleton
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Skeleton) index() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("skeleton %q: size must be positive", s.Name)
	}
	s.parts = make(map[string]int, len(s.Parts))
	for i := range s.Parts {
		p := &s.Parts[i]
		c, err := resource.ParseHexColor(p.Color)
		if err != nil {
			return fmt.Errorf("skeleton %q part %q: %w", s.Name, p.Name, err)
		}
		p.fill = c
		s.parts[p.Name] = i
	}
	s.anims = make(map[string]*Animation, len(s.Animations))
	for i := range s.Animations {
		a := &s.Animations[i]
		if a.Duration <= 0 {
			return fmt.Errorf("skeleton %q animation %q: duration must be positive", s.Name, a.Name)
		}
		if _, ok := s.parts[a.Part]; a.Part != "" && !ok {
			return fmt.Errorf("skeleton %q animation %q: unknown part %q", s.Name, a.Name, a.Part)
		}
		s.anims[a.Name] = a
	}
	return nil
}

// Animation looks up an animation by name.
func (s *Skeleton) Animation(name string) (*Animation, bool) {
	a, ok := s.anims[name]
	return a, ok
}
