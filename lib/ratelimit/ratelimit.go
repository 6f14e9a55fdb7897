package ratelimit

import (
	"context"
	"time"
)

// Gate enforces a minimum interval between successive operations
// against the same remote. The first Wait never blocks.
type Gate struct {
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// NewGateWithClock swaps the real clock out, so callers in tests
// don't spend wall time sleeping.
func NewGateWithClock(
	interval time.Duration,
	now func() time.Time,
	sleep func(ctx context.Context, d time.Duration) error,
) *Gate {
	return &Gate{
		interval: interval,
		now:      now,
		sleep:    sleep,
	}
}

// Wait blocks until the configured interval has elapsed since the
// previous release of the gate.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}

	now := g.now()
	if !g.last.IsZero() {
		remaining := g.interval - now.Sub(g.last)
		if remaining > 0 {
			err := g.sleep(ctx, remaining)
			if err != nil {
				return err
			}
			now = g.now()
		}
	}

	g.last = now
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
