package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"
)

// Decoder turns raw asset bytes into a value.
type Decoder func(data []byte) (any, error)

// FileLoader reads assets from a directory tree. At most maxConcurrent
// files are read and decoded at once.
type FileLoader struct {
	root     string
	sem      *semaphore.Weighted
	decoders map[Kind]Decoder
	exts     map[Kind][]string
	log      *zap.Logger
}

func NewFileLoader(root string, maxConcurrent int, log *zap.Logger) *FileLoader {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	l := &FileLoader{
		root:     root,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		decoders: make(map[Kind]Decoder),
		exts: map[Kind][]string{
			KindSprite: {".png", ".webp", ".jpg", ".jpeg", ".bmp", ".gif"},
			KindPrefab: {".yaml", ".yml"},
			KindFigure: {".yaml", ".yml"},
			KindAudio:  {".wav"},
		},
		log: log,
	}
	l.Register(KindSprite, DecodeSprite)
	l.Register(KindPrefab, DecodePrefab)
	return l
}

// Register installs the decoder for kind, replacing any previous one.
func (l *FileLoader) Register(kind Kind, dec Decoder) {
	l.decoders[kind] = dec
}

func (l *FileLoader) Root() string { return l.root }

func (l *FileLoader) Load(ctx context.Context, key Key) (any, error) {
	dec, ok := l.decoders[key.Kind]
	if !ok {
		return nil, fmt.Errorf("no decoder for %s", key.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	l.log.Debug("asset loaded", zap.Stringer("key", key), zap.String("file", path))
	return v, nil
}

// Release closes values that hold resources of their own.
func (l *FileLoader) Release(key Key, value any) {
	if c, ok := value.(io.Closer); ok {
		if err := c.Close(); err != nil {
			l.log.Warn("release asset", zap.Stringer("key", key), zap.Error(err))
		}
	}
}

// resolve maps a key onto a file under root. A path without an extension
// is tried with each extension registered for its kind.
func (l *FileLoader) resolve(key Key) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(key.Path))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s: path escapes asset root: %w", key, ErrNotFound)
	}
	base := filepath.Join(l.root, rel)
	candidates := []string{base}
	if filepath.Ext(rel) == "" {
		candidates = candidates[:0]
		for _, ext := range l.exts[key.Kind] {
			candidates = append(candidates, base+ext)
		}
	}
	for _, c := range candidates {
		fi, err := os.Stat(c)
		if err == nil && !fi.IsDir() {
			return c, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotFound)
}

// DecodeSprite decodes PNG, JPEG, GIF, WebP and BMP images.
func DecodeSprite(data []byte) (any, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// PrefabDoc describes a composite panel: a filled box with an optional
// caption and an optional sprite drawn inside it.
type PrefabDoc struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Fill    string `yaml:"fill"` // #RRGGBB or #RRGGBBAA
	Caption string `yaml:"caption"`
	Sprite  string `yaml:"sprite"`
}

func DecodePrefab(data []byte) (any, error) {
	var doc PrefabDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Width < 0 || doc.Height < 0 {
		return nil, fmt.Errorf("prefab %q: negative size", doc.Name)
	}
	return &doc, nil
}

// ParseHexColor parses #RRGGBB or #RRGGBBAA. An empty string is opaque
// white.
func ParseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	if s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
