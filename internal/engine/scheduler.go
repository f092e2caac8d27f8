package engine

import (
	"context"
	"time"
)

// Run drives the countdown, one Tick per interval, until the session finishes
// or ctx is canceled. Ticks arriving while paused or behind the intro are
// no-ops; leaving either restarts the ticker phase so a resumed session gets a
// full second before its next decrement.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-e.resumed:
			ticker.Reset(e.tickInterval)
		case <-ticker.C:
			e.Tick()
		}
	}
}
