package resource

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderTarget is a square off-screen surface figures are drawn into.
type RenderTarget struct {
	Name string
	*image.RGBA
}

// RenderTargetPool recycles fixed-size render targets. Owner goroutine only.
type RenderTargetPool struct {
	size      int
	available []*RenderTarget
	active    map[*RenderTarget]struct{}
	log       *zap.Logger
}

func NewRenderTargetPool(size int, log *zap.Logger) *RenderTargetPool {
	if size <= 0 {
		size = 1200
	}
	return &RenderTargetPool{
		size:   size,
		active: make(map[*RenderTarget]struct{}),
		log:    log,
	}
}

// Prepare creates n available targets up front.
func (p *RenderTargetPool) Prepare(n int) {
	for i := 0; i < n; i++ {
		p.available = append(p.available, p.create())
	}
}

// Acquire hands out an available target, creating one when the pool is
// exhausted.
func (p *RenderTargetPool) Acquire() *RenderTarget {
	var t *RenderTarget
	if n := len(p.available); n > 0 {
		t = p.available[n-1]
		p.available[n-1] = nil
		p.available = p.available[:n-1]
	} else {
		t = p.create()
		p.log.Info("render target pool grew",
			zap.String("target", t.Name),
			zap.Int("active", len(p.active)+1),
		)
	}
	p.active[t] = struct{}{}
	return t
}

// Release clears t and returns it to the pool. Targets that are not active
// are ignored, so a second release is a no-op.
func (p *RenderTargetPool) Release(t *RenderTarget) {
	if t == nil {
		return
	}
	if _, ok := p.active[t]; !ok {
		return
	}
	delete(p.active, t)
	clear(t.Pix)
	p.available = append(p.available, t)
}

// Clear drops every target, active or not.
func (p *RenderTargetPool) Clear() {
	for _, t := range p.available {
		t.Pix = nil
	}
	for t := range p.active {
		t.Pix = nil
	}
	p.available = nil
	p.active = make(map[*RenderTarget]struct{})
}

func (p *RenderTargetPool) Available() int { return len(p.available) }
func (p *RenderTargetPool) Active() int    { return len(p.active) }
func (p *RenderTargetPool) Size() int      { return p.size }

func (p *RenderTargetPool) Info() string {
	return fmt.Sprintf("render target pool: available=%d active=%d size=%d",
		len(p.available), len(p.active), p.size)
}

func (p *RenderTargetPool) create() *RenderTarget {
	return &RenderTarget{
		Name: "render_target_" + uuid.NewString(),
		RGBA: image.NewRGBA(image.Rect(0, 0, p.size, p.size)),
	}
}
