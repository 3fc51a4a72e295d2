package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Do runs fn up to 1+MaxRetries times, sleeping per the policy between
// attempts. permanent (optional) short-circuits retrying when it reports true
// for an error, returning that error unwrapped. Context cancellation stops
// the wait between attempts immediately.
func Do(ctx context.Context, pol Policy, op string, permanent func(error) bool, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying operation", slog.String("operation", op), slog.Int("attempt", attempt))
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent != nil && permanent(err) {
			return err
		}
		if attempt == pol.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pol.Delay(attempt + 1)):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, pol.MaxRetries+1, lastErr)
}
