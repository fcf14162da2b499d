package sink

import (
	"context"
	"errors"
	"time"
)

// maxRetryDelay caps the backoff between export attempts.
const maxRetryDelay = 5 * time.Second

// RetryableError marks an export failure as transient. [Retry] only tries
// again for errors that wrap one.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns a permanent error, or attempts
// run out. The delay doubles after each transient failure, up to
// maxRetryDelay. A canceled ctx ends the wait with ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < max(attempts, 1); i++ {
		if i > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			delay = min(delay*2, maxRetryDelay)
		}
		if err = fn(); err == nil || !errors.As(err, new(*RetryableError)) {
			return err
		}
	}
	return err
}

