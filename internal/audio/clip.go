package audio

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"gopkg.in/yaml.v3"
)

// Clip is a fully decoded sound held in memory so it can be replayed and
// looped without touching the disk again.
type Clip struct {
	Format beep.Format
	buf    *beep.Buffer
}

// NewClip drains s into a new clip.
func NewClip(format beep.Format, s beep.Streamer) *Clip {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Clip{Format: format, buf: buf}
}

// DecodeWAV is the resource decoder for audio clips.
func DecodeWAV(data []byte) (any, error) {
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer s.Close()
	c := NewClip(format, s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	return c, nil
}

func (c *Clip) Len() int                { return c.buf.Len() }
func (c *Clip) Duration() time.Duration { return c.Format.SampleRate.D(c.buf.Len()) }

// streamer returns a fresh playback cursor, resampled to rate when needed.
func (c *Clip) streamer(rate beep.SampleRate, loop bool) beep.Streamer {
	var s beep.Streamer = c.buf.Streamer(0, c.buf.Len())
	if loop {
		s = beep.Loop(-1, c.buf.Streamer(0, c.buf.Len()))
	}
	if c.Format.SampleRate != rate {
		s = beep.Resample(4, c.Format.SampleRate, rate, s)
	}
	return s
}

// ChapterAudio lists the clips one chapter plays.
type ChapterAudio struct {
	Name  string   `yaml:"name"`
	BGM   []string `yaml:"bgm"`
	Voice []string `yaml:"voice"`
	Sound []string `yaml:"sound"`
}

// Files returns every clip of the chapter, BGM first.
func (c ChapterAudio) Files() []string {
	files := make([]string, 0, len(c.BGM)+len(c.Voice)+len(c.Sound))
	files = append(files, c.BGM...)
	files = append(files, c.Voice...)
	return append(files, c.Sound...)
}

// ChapterTable indexes chapters.yaml by chapter name.
type ChapterTable struct {
	chapters map[string]*ChapterAudio
}

// LoadChapterTable loads the chapter audio table. A missing file yields an
// empty table.
func LoadChapterTable(path string) (*ChapterTable, error) {
	t := &ChapterTable{chapters: make(map[string]*ChapterAudio)}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chapter audio: %w", err)
	}
	var doc struct {
		Chapters []ChapterAudio `yaml:"chapters"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse chapter audio: %w", err)
	}
	for i := range doc.Chapters {
		c := &doc.Chapters[i]
		t.chapters[c.Name] = c
	}
	return t, nil
}

// Get returns the chapter entry, or nil if none.
func (t *ChapterTable) Get(name string) *ChapterAudio {
	return t.chapters[name]
}

func (t *ChapterTable) Count() int {
	return len(t.chapters)
}
