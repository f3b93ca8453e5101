package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

// Backoff retries a fallible operation with exponentially growing delays:
// BaseDelay, 2*BaseDelay, 4*BaseDelay and so on. There is no delay before
// the first attempt and none after the last failing one.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *slog.Logger
	// Sleep is replaceable in tests. The default suspends on a timer and
	// honors context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultBackoff(logger *slog.Logger) Backoff {
	return Backoff{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Logger:     logger,
	}
}

// RefreshFailedError is returned once every attempt has failed. It wraps
// the error from the final attempt.
type RefreshFailedError struct {
	Attempts int
	Cause    error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("refresh failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RefreshFailedError) Unwrap() error {
	return e.Cause
}

// Do runs op under b's retry policy and returns its result, or a
// *RefreshFailedError wrapping the last error after MaxRetries failures.
func Do[T any](ctx context.Context, b Backoff, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxRetries := b.MaxRetries
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			delay := b.BaseDelay << attempt
			logger.Debug("retrying after error",
				slog.Int("attempt", attempt+1),
				slog.Int("maxRetries", maxRetries),
				slog.Duration("delay", delay),
				slog.Any("error", err))
			if err := sleep(ctx, delay); err != nil {
				return zero, &RefreshFailedError{Attempts: attempt + 1, Cause: err}
			}
		}
	}

	logger.Error("all retry attempts failed",
		slog.Int("attempts", maxRetries),
		slog.Any("error", lastErr))
	return zero, &RefreshFailedError{Attempts: maxRetries, Cause: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
