// ABOUTME: Periodic re-evaluation of the AI activity state for live countdowns
// ABOUTME: Emits a fresh signal every tick until the context is cancelled
package aistate

import (
	"context"
	"time"
)

// DefaultInterval is the countdown refresh rate.
const DefaultInterval = time.Second

// Source supplies the latest lead inputs for each tick.
type Source func() Inputs

// Watch emits Evaluate(source(), now) immediately and then on every tick.
// No signal is emitted once ctx is done.
func Watch(ctx context.Context, interval time.Duration, source Source, emit func(Signal)) {
	WatchWithClock(ctx, interval, time.Now, source, emit)
}

// WatchWithClock is Watch with an injectable clock.
func WatchWithClock(ctx context.Context, interval time.Duration, now func() time.Time, source Source, emit func(Signal)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		emit(Evaluate(source(), now()))
	}

	fire()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire()
		}
	}
}
