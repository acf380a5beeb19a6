package resilience

import (
	"context"
	"errors"
	"time"
)

// BackoffStrategy controls how the wait between attempts grows
type BackoffStrategy int

const (
	// BackoffLinear waits base * attempt-number between attempts
	BackoffLinear BackoffStrategy = iota
	// BackoffExponential doubles the wait each attempt
	BackoffExponential
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts int             // Maximum number of attempts
	BaseBackoff time.Duration   // Backoff unit for the first wait
	MaxBackoff  time.Duration   // Cap on any single wait
	Strategy    BackoffStrategy // How the backoff grows
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  10 * time.Second,
		Strategy:    BackoffLinear,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// IsRetryableError reports whether a given error is worth retrying
type IsRetryableError func(error) bool

// Retry executes fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The context is also honored while sleeping between
// attempts so a caller's deadline cuts the whole loop short.
func Retry(ctx context.Context, fn RetryableFunc, config *RetryConfig, isRetryable IsRetryableError) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable != nil && !isRetryable(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt == config.MaxAttempts {
			break
		}

		wait := CalculateBackoff(attempt, config.BaseBackoff, config.MaxBackoff, config.Strategy)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// CalculateBackoff returns the wait after the given 1-based attempt number.
func CalculateBackoff(attempt int, base, max time.Duration, strategy BackoffStrategy) time.Duration {
	var wait time.Duration
	switch strategy {
	case BackoffExponential:
		wait = base
		for i := 1; i < attempt; i++ {
			wait *= 2
			if wait > max {
				return max
			}
		}
	default:
		wait = time.Duration(attempt) * base
	}
	if wait > max {
		wait = max
	}
	return wait
}

// RetryableError wraps an error to indicate it's retryable
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is a RetryableError
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}
