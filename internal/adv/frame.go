package adv

import (
	"context"
	"time"
)

// Frames paces the scheduler. WaitUpdate blocks until the next frame and
// returns the time since the previous one; WaitLateUpdate marks the point
// after state advancement where views are updated. Both return the
// context error once ctx is done.
type Frames interface {
	WaitUpdate(ctx context.Context) (time.Duration, error)
	WaitLateUpdate(ctx context.Context) error
}

// TickerFrames runs frames off a time.Ticker.
type TickerFrames struct {
	ticker   *time.Ticker
	interval time.Duration
	last     time.Time
}

func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickerFrames{
		ticker:   time.NewTicker(interval),
		interval: interval,
		last:     time.Now(),
	}
}

func (f *TickerFrames) WaitUpdate(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case now := <-f.ticker.C:
		dt := now.Sub(f.last)
		f.last = now
		// a stall (debugger, suspended terminal) counts as a single frame
		if dt > 4*f.interval {
			dt = f.interval
		}
		return dt, nil
	}
}

func (f *TickerFrames) WaitLateUpdate(ctx context.Context) error {
	return ctx.Err()
}

func (f *TickerFrames) Stop() { f.ticker.Stop() }
