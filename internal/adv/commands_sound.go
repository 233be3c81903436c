package adv

import (
	"slices"

	"github.com/murenne/ADVLite/internal/scripting"
)

func (m *Manager) PlayBGM(file string)   { m.d.Audio.PlayBGM(file) }
func (m *Manager) StopBGM()              { m.d.Audio.StopBGM() }
func (m *Manager) PlayVoice(file string) { m.d.Audio.PlayVoice(file) }
func (m *Manager) StopVoice()            { m.d.Audio.StopVoice() }

// PlaySound returns the sound id, or -1 when nothing could play. Sounds
// still playing when playback ends are stopped.
func (m *Manager) PlaySound(file string, p scripting.SoundParam) int64 {
	id := m.d.Audio.PlaySound(file, p.Loop, p.Volume)
	if id > 0 {
		m.sounds = append(m.sounds, id)
	}
	return id
}

func (m *Manager) StopSound(id int64) {
	m.d.Audio.StopSound(id)
	if i := slices.Index(m.sounds, id); i >= 0 {
		m.sounds = slices.Delete(m.sounds, i, i+1)
	}
}

func (m *Manager) FigureBreath(id int) {
	if v, ok := m.objects.figure(id); ok {
		v.figure.SetBreath()
	}
}

func (m *Manager) FigureBody(id, motion int) {
	if v, ok := m.objects.figure(id); ok {
		v.figure.SetBody(motion)
	}
}

func (m *Manager) FigureEye(id, motion int) {
	if v, ok := m.objects.figure(id); ok {
		v.figure.SetEye(motion)
	}
}

// FigureLip sets the resting mouth shape; the talking one follows the
// voice each frame.
func (m *Manager) FigureLip(id, motion int) {
	if v, ok := m.objects.figure(id); ok {
		v.figure.SetLipSync(false, motion)
	}
}
