package errors

import (
	"context"
	"errors"
	"time"
)

// Backoff schedule for retryable failures: 200ms, 400ms, 800ms, capped.
const (
	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
	retryCap      = 5 * time.Second
)

// WithRetry runs fn, repeating it with exponential backoff while the
// failure is marked retryable in the taxonomy. Used for the
// identity-provider exchange, the one genuinely remote call this service
// makes. Waits respect ctx cancellation.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffFor(attempt)):
		}
	}
}

// IsRetryable reports whether the error is marked retryable in the taxonomy.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}

func backoffFor(attempt int) time.Duration {
	delay := retryBase << uint(attempt+1)
	if delay > retryCap {
		return retryCap
	}

	return delay
}
