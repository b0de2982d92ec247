package runner

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig controls how storage calls are retried on transient errors.
// It is unrelated to a job's own retry budget.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// JitterFraction randomizes each sleep by up to this share of it.
	JitterFraction float64
}

// DefaultRetryConfig returns the storage retry policy used by New.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// DisableRetry makes every storage call a single attempt.
func DisableRetry() Option {
	return optionFunc(func(c *Config) {
		c.StorageRetry.MaxAttempts = 1
		c.DequeueRetry.MaxAttempts = 1
	})
}

// retryWithBackoff runs operation until it succeeds, fails permanently or
// config.MaxAttempts is reached, and returns the last error.
func retryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) || attempt >= config.MaxAttempts {
			break
		}

		jitter := time.Duration(float64(backoff) * config.JitterFraction * (rand.Float64()*2 - 1))
		sleep := backoff + jitter
		if sleep < 0 {
			sleep = backoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}

// IsRetryableError reports whether a storage error may succeed on a later
// attempt. Context errors never do; anything else is assumed transient.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
