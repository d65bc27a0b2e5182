// Package poll provides the bounded wait used by every UI-driving step to
// observe asynchronous changes of the page.
package poll

import (
	"context"
	"time"
)

const (
	// DefaultTimeout applies when WaitFor is called with a zero timeout.
	DefaultTimeout = 5 * time.Second
	// DefaultInterval applies when WaitFor is called with a zero interval.
	DefaultInterval = 100 * time.Millisecond
)

// Condition is evaluated on every poll. It must not block for long.
type Condition func(ctx context.Context) bool

// WaitFor evaluates cond until it returns true or timeout elapses, sleeping
// interval between attempts. A timeout or a canceled ctx yields false; WaitFor
// never returns an error.
func WaitFor(ctx context.Context, cond Condition, timeout, interval time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if cond(ctx) {
			return true
		}
		if err := Sleep(ctx, interval); err != nil {
			return false
		}
	}
	return false
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
