package cdpdom

import (
	"context"
	"time"
)

// CombineContext returns a context derived from primary that is also canceled
// when secondary is. primary carries the CDP target, secondary the caller's
// deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// valueOnlyContext keeps the values of its parent but none of its
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{} { return nil }
func (valueOnlyContext) Err() error { return nil }

// Detach returns a context with the values of ctx that is never canceled.
// Cleanup that has to reach the browser after the caller gave up uses it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
