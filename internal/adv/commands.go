package adv

import (
	"image"
	"time"

	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/figure"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"go.uber.org/zap"
)

var _ scripting.Host = (*Manager)(nil)

// SetText shows a dialogue line. The localized name and text replace the
// script's when the locale has them.
func (m *Manager) SetText(textID, charaID int, text string) {
	var name string
	if m.d.Locale != nil {
		if n, ok := m.d.Locale.CharacterName(charaID); ok {
			name = n
		}
		if t, ok := m.d.Locale.ScenarioText(m.chapter, textID); ok {
			text = t
		}
	}

	m.text = text
	m.textRunes = runeLen(text)
	m.name = name
	m.textStart = m.now
	m.shown = 0
	m.enter(queued{state: StateWaitText})

	m.d.Presenter.SetName(name)
	m.d.Presenter.SetText("")
	m.objects.SetTarget(charaID)

	it := BackLogItem{CharaID: charaID, CharaName: name, TextID: textID, Text: text}
	m.record(m.backlog.Add(it), it)
	event.Emit(m.d.Bus, event.LineShown{TextID: textID, CharaID: charaID, Name: name, Text: text})

	m.objects.StopAllBodyMotions()
}

func (m *Manager) WaitKey()                 { m.enter(queued{state: StateWaitKey}) }
func (m *Manager) WaitTime(d time.Duration) { m.enter(queued{state: StateWaitTime, rest: d}) }
func (m *Manager) WaitTask()                { m.enter(queued{state: StateWaitTask}) }
func (m *Manager) SetAuto(on bool)          { m.auto = on }

func (m *Manager) CreateObject(id int, key resource.Key, p scripting.ObjectParam) {
	m.objects.Create(id, key, p)
}

func (m *Manager) DeleteObject(id int, p *scripting.ObjectParam) { m.objects.Delete(id, p) }
func (m *Manager) SetOrder(id, order int)                        { m.objects.SetOrder(id, order) }
func (m *Manager) SetTarget(id int)                              { m.objects.SetTarget(id) }

// UpdateView restacks the character layer.
func (m *Manager) UpdateView() {
	m.objects.RecomputeDrawOrder(m.cfg.CharacterLevel)
}

func (m *Manager) TextWindow(open bool) { m.d.Presenter.ShowTextWindow(open) }

// Prepare starts loading key ahead of use. Visual handles are kept until
// ReleasePrepared or the end of playback.
func (m *Manager) Prepare(key resource.Key) {
	switch key.Kind {
	case resource.KindSprite:
		prepare[image.Image](m, key)
	case resource.KindPrefab:
		prepare[*resource.PrefabDoc](m, key)
	case resource.KindFigure:
		prepare[*figure.Skeleton](m, key)
	case resource.KindAudio:
		m.tasks.Track(m.d.Audio.Prepare(key.Path))
	default:
		m.log.Warn("prepare: unknown kind", zap.Stringer("key", key))
	}
}

func prepare[T any](m *Manager, key resource.Key) {
	h := resource.Load[T](m.d.Resources, key)
	h.Then(func(_ T, err error) {
		if err != nil {
			m.log.Warn("prepare failed", zap.Stringer("key", key), zap.Error(err))
			event.Emit(m.d.Bus, event.LoadFailed{Key: key.String(), Err: err})
		}
	})
	m.prepared = append(m.prepared, h)
	m.tasks.Track(h)
}

// PrepareChapterAudio preloads every clip the chapter table lists.
func (m *Manager) PrepareChapterAudio(chapter string) {
	if m.d.Chapters == nil {
		m.log.Warn("prepare_chapter_audio: no chapter table", zap.String("chapter", chapter))
		return
	}
	for _, t := range m.d.Audio.PrepareChapter(m.d.Chapters, chapter) {
		m.tasks.Track(t)
	}
}

func (m *Manager) ReleasePrepared() { m.releasePrepared() }

func (m *Manager) StopStartSkip() {
	if m.startSkip {
		m.log.Debug("start skip finished", zap.String("where", m.d.Engine.Where()))
	}
	m.startSkip = false
}

func (m *Manager) Log(text string) {
	m.log.Info("script", zap.String("text", text), zap.String("where", m.d.Engine.Where()))
}
