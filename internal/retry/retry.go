// Package retry provides a bounded retry wrapper with exponential backoff
// for unreliable external calls.
package retry

import (
	"context"
	"time"
)

// Do invokes fn up to attempts times, sleeping between failures with
// exponential backoff starting at baseDelay (baseDelay, 2x, 4x, ...).
// When permanent reports true for an error, Do returns that error
// immediately without further attempts. Context cancellation interrupts
// the wait between attempts.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, permanent func(error) bool, fn func(context.Context) error) error {
	var err error
	delay := baseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if permanent != nil && permanent(err) {
			return err
		}
	}
	return err
}
