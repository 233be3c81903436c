// Package locale looks up character names, chapter metadata and translated
// dialogue. Base-language dialogue lives in the scripts themselves; the base
// table only carries names and metadata, and each override table adds the
// dialogue of one language.
package locale

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/murenne/ADVLite/internal/config"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	baseFile       = "text.yaml"
	overridePrefix = "text-"
	overrideSuffix = ".yaml"
)

type Metadata struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
}

// table is the on-disk layout shared by the base and override files.
// Scenario maps chapter id to text id to dialogue.
type table struct {
	CharacterNames map[int]string         `yaml:"character_names"`
	Metadata       map[int]Metadata       `yaml:"metadata"`
	Scenario       map[int]map[int]string `yaml:"scenario"`
}

// Localizer serves lookups for the current language. Owner goroutine only.
type Localizer struct {
	dir  string
	base language.Tag
	enc  encoding.Encoding
	log  *zap.Logger

	lang     language.Tag
	names    map[int]string
	meta     map[int]Metadata
	scenario map[int]map[int]string
}

// New loads the base table from cfg.Dir and switches to cfg.Language.
// A missing base table leaves every lookup empty.
func New(cfg config.LocaleConfig, log *zap.Logger) (*Localizer, error) {
	base, err := language.Parse(cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("locale base %q: %w", cfg.Base, err)
	}
	enc, err := Encoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	l := &Localizer{dir: cfg.Dir, base: base, enc: enc, log: log}
	if err := l.SetLanguage(cfg.Language); err != nil {
		return nil, err
	}
	return l, nil
}

// Encoding maps a configured charset name to its decoder.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "big5":
		return traditionalchinese.Big5, nil
	case "shift_jis", "sjis":
		return japanese.ShiftJIS, nil
	}
	return nil, fmt.Errorf("unknown text encoding %q", name)
}

// Language returns the tag in use after matching.
func (l *Localizer) Language() language.Tag { return l.lang }

// SetLanguage reloads the tables for the closest available language.
// Requests that match nothing fall back to the base language.
func (l *Localizer) SetLanguage(lang string) error {
	want, err := language.Parse(lang)
	if err != nil {
		l.log.Warn("invalid language tag, using base", zap.String("language", lang))
		want = l.base
	}

	base, err := l.read(filepath.Join(l.dir, baseFile))
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Warn("base text table missing", zap.String("dir", l.dir))
		base = &table{}
	} else if err != nil {
		return err
	}
	l.lang = l.base
	l.names = base.CharacterNames
	l.meta = base.Metadata
	l.scenario = nil

	tag := l.match(want)
	if tag == l.base {
		l.log.Info("locale loaded",
			zap.String("language", l.lang.String()),
			zap.Int("names", len(l.names)),
		)
		return nil
	}
	over, err := l.read(filepath.Join(l.dir, overridePrefix+tag.String()+overrideSuffix))
	if err != nil {
		return err
	}
	l.lang = tag
	if over.CharacterNames != nil {
		l.names = over.CharacterNames
	}
	if over.Metadata != nil {
		l.meta = over.Metadata
	}
	l.scenario = over.Scenario
	l.log.Info("locale loaded",
		zap.String("language", l.lang.String()),
		zap.Int("names", len(l.names)),
		zap.Int("chapters", len(l.scenario)),
	)
	return nil
}

func (l *Localizer) match(want language.Tag) language.Tag {
	tags := []language.Tag{l.base}
	for _, t := range Available(l.dir) {
		if t != l.base {
			tags = append(tags, t)
		}
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		l.log.Warn("no text table for language, using base", zap.String("language", want.String()))
		return l.base
	}
	return tags[idx]
}

// Available lists the languages with an override table in dir, sorted.
func Available(dir string) []language.Tag {
	paths, _ := filepath.Glob(filepath.Join(dir, overridePrefix+"*"+overrideSuffix))
	sort.Strings(paths)
	var tags []language.Tag
	for _, p := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), overridePrefix), overrideSuffix)
		if t, err := language.Parse(name); err == nil {
			tags = append(tags, t)
		}
	}
	return tags
}

func (l *Localizer) read(path string) (*table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text table: %w", err)
	}
	raw, err = l.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode text table %s: %w", path, err)
	}
	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse text table %s: %w", path, err)
	}
	return &t, nil
}

// CharacterName returns the display name for a speaker id.
func (l *Localizer) CharacterName(id int) (string, bool) {
	name, ok := l.names[id]
	return name, ok
}

func (l *Localizer) Metadata(chapter int) (Metadata, bool) {
	m, ok := l.meta[chapter]
	return m, ok
}

// ScenarioText returns the translated line for textID in chapter. It never
// reports a line for the base language, whose dialogue comes from the
// script. Escaped "\n" sequences become newlines.
func (l *Localizer) ScenarioText(chapter, textID int) (string, bool) {
	if l.lang == l.base {
		return "", false
	}
	text, ok := l.scenario[chapter][textID]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(text, `\n`, "\n"), true
}
