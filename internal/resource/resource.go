// Package resource loads shared assets by key with reference counting.
// Loads run on background goroutines; every state change a caller can see
// happens on the owner goroutine, delivered through a task.Poster.
package resource

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an asset missing from the asset root.
	ErrNotFound = errors.New("resource: not found")
	// ErrReleased reports a handle used after its last reference went away.
	ErrReleased = errors.New("resource: released")
)

// Kind selects how an asset is decoded.
type Kind int

const (
	KindSprite Kind = iota + 1
	KindPrefab
	KindFigure
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindSprite:
		return "sprite"
	case KindPrefab:
		return "prefab"
	case KindFigure:
		return "figure"
	case KindAudio:
		return "audio"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Key identifies one shared load.
type Key struct {
	Kind Kind
	Path string
}

func (k Key) String() string { return k.Kind.String() + ":" + k.Path }

func Sprite(path string) Key { return Key{Kind: KindSprite, Path: path} }
func Prefab(path string) Key { return Key{Kind: KindPrefab, Path: path} }
func Figure(path string) Key { return Key{Kind: KindFigure, Path: path} }
func Audio(path string) Key  { return Key{Kind: KindAudio, Path: path} }

// Loader produces and releases asset values. Load is called on a loader
// goroutine and must honor ctx; Release is called on the owner goroutine
// once the last reference to a loaded value is gone.
type Loader interface {
	Load(ctx context.Context, key Key) (any, error)
	Release(key Key, value any)
}
