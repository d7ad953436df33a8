package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

type retrier struct {
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// do runs fn until it succeeds, fails permanently, or retries run out.
func (r retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := r.backoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			// backoff * (0.5 to 1.5)
			wait := backoff
			if backoff > 0 {
				wait = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			}
			r.logger.Debug("retrying storage call",
				"op", op,
				"attempt", attempt,
				"backoff", wait,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			backoff *= 2
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
