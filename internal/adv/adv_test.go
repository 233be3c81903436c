package adv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/murenne/ADVLite/internal/audio"
	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/core/scope"
	"github.com/murenne/ADVLite/internal/figure"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/task"
	"github.com/murenne/ADVLite/internal/tween"
	"go.uber.org/zap"
)

const skeletonYAML = `
name: alice
width: 40
height: 80
parts:
  - {name: body, color: "#ff0000", x: 0, y: 0, w: 40, h: 80}
  - {name: eye, color: "#0000ff", x: 10, y: 10, w: 20, h: 10}
animations:
  - {name: breath, part: body, duration: 2, dy: 2}
  - {name: body_001, part: body, duration: 1, dx: 4}
  - {name: eye_blink/eye_blink_1001001, part: eye, duration: 0.2, scale_y: 0}
  - {name: lip/lip_1001001, duration: 1}
  - {name: lip_voice/lip_voice_1001001, duration: 0.3}
`

type fakeSurface struct {
	x, y      float64
	alpha     float64
	destroyed bool
}

func (s *fakeSurface) Position() (float64, float64) { return s.x, s.y }
func (s *fakeSurface) SetPosition(x, y float64)     { s.x, s.y = x, y }
func (s *fakeSurface) Alpha() float64               { return s.alpha }
func (s *fakeSurface) SetAlpha(a float64)           { s.alpha = a }
func (s *fakeSurface) Destroy()                     { s.destroyed = true }

type fakeLayer struct {
	surfaces map[int]*fakeSurface
	content  map[int]Content
	order    []int
}

func (l *fakeLayer) Attach(id int, c Content, x, y float64) Surface {
	s := &fakeSurface{x: x, y: y, alpha: 1}
	l.surfaces[id] = s
	l.content[id] = c
	return s
}

func (l *fakeLayer) Restack(ids []int) { l.order = ids }

type fakePresenter struct {
	name    string
	text    string
	keyWait bool
	window  bool
	layers  map[int]*fakeLayer
	screen  *fakeSurface
	panel   *fakeSurface
	syncs   int
	texts   []string
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		layers: make(map[int]*fakeLayer),
		screen: &fakeSurface{alpha: 1},
		panel:  &fakeSurface{},
	}
}

func (p *fakePresenter) SetName(name string) { p.name = name }

func (p *fakePresenter) SetText(text string) {
	if text != p.text {
		p.texts = append(p.texts, text)
	}
	p.text = text
}

func (p *fakePresenter) ShowKeyWait(on bool)      { p.keyWait = on }
func (p *fakePresenter) ShowTextWindow(open bool) { p.window = open }
func (p *fakePresenter) Screen() Surface          { return p.screen }
func (p *fakePresenter) TextWindow() Surface      { return p.panel }
func (p *fakePresenter) Sync()                    { p.syncs++ }

func (p *fakePresenter) Layer(level int) Layer {
	return p.layer(level)
}

func (p *fakePresenter) layer(level int) *fakeLayer {
	l, ok := p.layers[level]
	if !ok {
		l = &fakeLayer{surfaces: make(map[int]*fakeSurface), content: make(map[int]Content)}
		p.layers[level] = l
	}
	return l
}

func (p *fakePresenter) surface(level, id int) *fakeSurface {
	return p.layer(level).surfaces[id]
}

// fakeInput presses advance on the listed frames, counted by WaitUpdate
// through the shared frame counter.
type fakeInput struct {
	presses  map[int]bool
	mods     Modifiers
	request  ExtendedState
	requests map[int]ExtendedState
	frame    func() int
	polled   int
}

func (in *fakeInput) Advance() bool {
	in.polled++
	if in.frame == nil {
		return false
	}
	return in.presses[in.frame()]
}

func (in *fakeInput) Modifiers() Modifiers { return in.mods }

func (in *fakeInput) Request() ExtendedState {
	if in.frame != nil {
		if r, ok := in.requests[in.frame()]; ok {
			return r
		}
	}
	r := in.request
	in.request = ExNone
	return r
}

type fakeAudio struct {
	bgm, voice   string
	voicePlaying bool
	level        float64
	next         int64
	sounds       map[int64]string
	prepared     []string
	released     int
	advanced     time.Duration
}

func newFakeAudio() *fakeAudio { return &fakeAudio{sounds: make(map[int64]string)} }

func (a *fakeAudio) Prepare(file string) task.Task {
	a.prepared = append(a.prepared, file)
	f := task.NewFuture("prepare " + file)
	f.Complete(nil)
	return f
}

func (a *fakeAudio) PrepareChapter(chapters *audio.ChapterTable, name string) []task.Task {
	var out []task.Task
	if c := chapters.Get(name); c != nil {
		for _, file := range c.Files() {
			out = append(out, a.Prepare(file))
		}
	}
	return out
}

func (a *fakeAudio) Release()                 { a.released++ }
func (a *fakeAudio) PlayBGM(file string)      { a.bgm = file }
func (a *fakeAudio) StopBGM()                 { a.bgm = "" }
func (a *fakeAudio) PlayVoice(file string)    { a.voice, a.voicePlaying = file, true }
func (a *fakeAudio) StopVoice()               { a.voice, a.voicePlaying = "", false }
func (a *fakeAudio) IsVoicePlaying() bool     { return a.voicePlaying }
func (a *fakeAudio) VoiceLevel() float64      { return a.level }
func (a *fakeAudio) StopSound(id int64)       { delete(a.sounds, id) }
func (a *fakeAudio) Advance(dt time.Duration) { a.advanced += dt }

func (a *fakeAudio) PlaySound(file string, _ bool, _ float64) int64 {
	if file == "" {
		return -1
	}
	a.next++
	a.sounds[a.next] = file
	return a.next
}

// stepFrames yields a fixed delta. It sleeps a little per frame so loader
// goroutines get to post, and fails the run after limit frames.
type stepFrames struct {
	dt      time.Duration
	limit   int
	n       int
	late    int
	onFrame func(n int)
}

var errFrameLimit = errors.New("frame limit reached")

func (f *stepFrames) WaitUpdate(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.n >= f.limit {
		return 0, errFrameLimit
	}
	f.n++
	if f.onFrame != nil {
		f.onFrame(f.n)
	}
	time.Sleep(200 * time.Microsecond)
	return f.dt, nil
}

func (f *stepFrames) WaitLateUpdate(ctx context.Context) error {
	f.late++
	return ctx.Err()
}

// mapLoader serves decoded assets from memory.
type mapLoader struct {
	mu       sync.Mutex
	assets   map[resource.Key]any
	gate     chan struct{}
	released []resource.Key
}

func newMapLoader(t *testing.T) *mapLoader {
	t.Helper()
	skel, err := figure.Decode([]byte(skeletonYAML))
	if err != nil {
		t.Fatalf("figure.Decode: %v", err)
	}
	return &mapLoader{assets: map[resource.Key]any{
		resource.Sprite("bg/room"):   image.NewRGBA(image.Rect(0, 0, 4, 4)),
		resource.Sprite("chara/a"):   image.NewRGBA(image.Rect(0, 0, 4, 4)),
		resource.Sprite("chara/b"):   image.NewRGBA(image.Rect(0, 0, 4, 4)),
		resource.Sprite("chara/c"):   image.NewRGBA(image.Rect(0, 0, 4, 4)),
		resource.Prefab("ui/card"):   &resource.PrefabDoc{Name: "card", Width: 4, Height: 4},
		resource.Figure("fig/alice"): skel,
	}}
}

func (l *mapLoader) Load(ctx context.Context, key resource.Key) (any, error) {
	l.mu.Lock()
	gate := l.gate
	v, ok := l.assets[key]
	l.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, resource.ErrNotFound)
	}
	return v, nil
}

func (l *mapLoader) Release(key resource.Key, _ any) {
	l.mu.Lock()
	l.released = append(l.released, key)
	l.mu.Unlock()
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Render.TargetSize = 64
	return cfg
}

// pump dispatches the bus until cond holds.
func pump(t *testing.T, bus *event.Bus, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		bus.Dispatch()
		time.Sleep(time.Millisecond)
	}
}

type registryFixture struct {
	reg       *Registry
	root      *scope.Scope
	bus       *event.Bus
	presenter *fakePresenter
	loader    *mapLoader
	tasks     *task.Registry
	anim      *tween.List
	pool      *resource.RenderTargetPool
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	f := &registryFixture{
		root:      scope.NewRoot(context.Background()),
		bus:       event.NewBus(),
		presenter: newFakePresenter(),
		loader:    newMapLoader(t),
		tasks:     task.NewRegistry(),
		anim:      tween.NewList(),
		pool:      resource.NewRenderTargetPool(64, zap.NewNop()),
	}
	d := &Deps{
		Config:    testConfig(),
		Log:       zap.NewNop(),
		Bus:       f.bus,
		Resources: resource.NewManager(context.Background(), f.loader, f.bus, zap.NewNop()),
		Pool:      f.pool,
		Presenter: f.presenter,
	}
	f.reg = NewRegistry(f.root, d, f.tasks, f.anim)
	t.Cleanup(f.root.Cancel)
	return f
}

// shown creates id and pumps until its surface is attached.
func (f *registryFixture) shown(t *testing.T, id int, key resource.Key, p scripting.ObjectParam) *View {
	t.Helper()
	v := f.reg.Create(id, key, p)
	pump(t, f.bus, func() bool { return v.Shown() || v.Disposed() })
	return v
}

type managerFixture struct {
	m         *Manager
	presenter *fakePresenter
	input     *fakeInput
	audio     *fakeAudio
	frames    *stepFrames
	bus       *event.Bus
	engine    *scripting.Engine
	res       *resource.Manager
	cfg       *config.Config
}

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newManagerFixture(t *testing.T, log *zap.Logger, files map[string]string) *managerFixture {
	t.Helper()
	if log == nil {
		log = zap.NewNop()
	}
	cfg := testConfig()
	bus := event.NewBus()
	engine := scripting.NewEngine(writeScripts(t, files), log)
	t.Cleanup(engine.Close)

	frames := &stepFrames{dt: 100 * time.Millisecond, limit: 2000}
	input := &fakeInput{frame: func() int { return frames.n }}
	f := &managerFixture{
		presenter: newFakePresenter(),
		input:     input,
		audio:     newFakeAudio(),
		frames:    frames,
		bus:       bus,
		engine:    engine,
		res:       resource.NewManager(context.Background(), newMapLoader(t), bus, log),
		cfg:       cfg,
	}
	f.m = New(Deps{
		Config:    cfg,
		Log:       log,
		Bus:       bus,
		Resources: f.res,
		Pool:      resource.NewRenderTargetPool(cfg.Render.TargetSize, log),
		Presenter: f.presenter,
		Input:     input,
		Audio:     f.audio,
		Frames:    frames,
		Engine:    engine,
	})
	return f
}

func (f *managerFixture) play(t *testing.T, script string, startLine int) {
	t.Helper()
	if err := f.m.Play(context.Background(), script, 1, startLine); err != nil {
		t.Fatalf("Play: %v", err)
	}
}
