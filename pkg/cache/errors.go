package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackend wraps failures of a remote backend (connection refused,
// timeouts). Callers treat it as a miss and render anyway.
var ErrBackend = errors.New("cache backend unavailable")

// Retry schedule for remote backends. Rendering is interactive, so the
// whole schedule stays well under a second.
const (
	retryAttempts = 3
	retryDelay    = 50 * time.Millisecond
)

// RetryableError marks a backend failure that may succeed on another try.
type RetryableError struct{ Err error }

// Retryable marks err as retryable. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// retryable, or the attempts run out. The pause doubles after each failure.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var err error
	for i := 0; i < retryAttempts; i++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
