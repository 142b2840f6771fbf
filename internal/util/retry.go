package util

import (
	"context"
	"time"
)

// maxBackoff caps the delay between retry attempts.
const maxBackoff = 30 * time.Second

// Retry calls fn up to maxAttempts times, doubling the delay between
// attempts starting from baseDelay and capping it at 30s. It returns nil
// on the first success, the last error if every attempt fails, or the
// context error if the context is cancelled while waiting.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		// No sleep after the final attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}
	}

	return err
}
