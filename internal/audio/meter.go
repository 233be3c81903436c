package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// levelWindow is the number of recent samples averaged by the voice meter.
const levelWindow = 256

// meter passes a stream through while keeping the mean absolute amplitude
// of the last levelWindow samples. It reports done once the wrapped stream
// drains.
type meter struct {
	s    beep.Streamer
	ring [levelWindow]float64
	pos  int
	fill int
	sum  float64
	done bool
}

func newMeter(s beep.Streamer) *meter {
	return &meter{s: s}
}

func (m *meter) Stream(samples [][2]float64) (int, bool) {
	if m.done {
		return 0, false
	}
	n, ok := m.s.Stream(samples)
	for _, smp := range samples[:n] {
		a := (math.Abs(smp[0]) + math.Abs(smp[1])) / 2
		m.sum += a - m.ring[m.pos]
		m.ring[m.pos] = a
		m.pos = (m.pos + 1) % levelWindow
		if m.fill < levelWindow {
			m.fill++
		}
	}
	if !ok || n < len(samples) {
		m.done = true
	}
	return n, ok
}

func (m *meter) Err() error { return m.s.Err() }

// level is zero once the stream has finished.
func (m *meter) level() float64 {
	if m.done || m.fill == 0 {
		return 0
	}
	return m.sum / levelWindow
}
