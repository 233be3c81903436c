package adv

import (
	"image"
	"time"

	"github.com/murenne/ADVLite/internal/audio"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/task"
)

// Content is what a view shows once its assets are loaded. Figures show
// their render target, which is redrawn every frame.
type Content struct {
	Kind   resource.Kind
	Image  image.Image
	Prefab *resource.PrefabDoc
}

// Surface is a displayed object. Positions are offsets from the layer
// center; alpha is in [0, 1].
type Surface interface {
	Position() (x, y float64)
	SetPosition(x, y float64)
	Alpha() float64
	SetAlpha(a float64)
	Destroy()
}

// Layer is one draw level of the screen.
type Layer interface {
	Attach(id int, c Content, x, y float64) Surface
	// Restack sets the draw order of the given surfaces, bottom first.
	Restack(ids []int)
}

// Presenter is the screen the scheduler drives.
type Presenter interface {
	SetName(name string)
	SetText(text string)
	ShowKeyWait(on bool)
	ShowTextWindow(open bool)
	Layer(level int) Layer
	// Screen is the full screen fade overlay. Alpha 1 is black.
	Screen() Surface
	// TextWindow is the dialogue panel, moved by text window shakes.
	TextWindow() Surface
	// Sync is called once per frame after every view update.
	Sync()
}

// Modifiers are the skip keys currently held.
type Modifiers struct {
	Primary   bool
	Secondary bool
}

// Input is polled by the scheduler. Advance is edge triggered: it reports
// each press once.
type Input interface {
	Advance() bool
	Modifiers() Modifiers
}

// Requester is implemented by inputs that can also ask for menus or skip.
type Requester interface {
	Request() ExtendedState
}

// Audio is the playback surface of audio.Mixer.
type Audio interface {
	Prepare(file string) task.Task
	PrepareChapter(chapters *audio.ChapterTable, name string) []task.Task
	Release()
	PlayBGM(file string)
	StopBGM()
	PlayVoice(file string)
	StopVoice()
	IsVoicePlaying() bool
	VoiceLevel() float64
	PlaySound(file string, loop bool, volume float64) int64
	StopSound(id int64)
	Advance(dt time.Duration)
}
