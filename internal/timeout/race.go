// Package timeout races a pending call against a deadline.
package timeout

import (
	"context"
	"time"

	"github.com/alnah/go-edgecli/internal/apierr"
)

// Race runs fn in its own goroutine and returns whichever settles first:
// fn's result, or an *apierr.TimeoutError once d elapses.
//
// On timeout fn is not cancelled: it keeps running with ctx and its result
// is discarded. When fn settles first the timer is stopped. d is not
// validated; d <= 0 makes the timer fire immediately. Cancelling ctx ends
// the wait with ctx.Err().
func Race[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	// Buffered so a late result never blocks the abandoned goroutine.
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		return zero, &apierr.TimeoutError{After: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
