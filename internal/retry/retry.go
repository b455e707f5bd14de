// Package retry wraps a single remote call with exponential backoff.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config controls the backoff schedule for Do.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
	Jitter       bool
	// Retryable classifies an error; a nil predicate retries everything.
	Retryable func(error) bool
}

// DefaultConfig is a sensible schedule for remote AI calls: three attempts,
// 500ms initial delay doubling up to 5s.
func DefaultConfig(retryable func(error) bool) Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Factor:       2,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
		Retryable:    retryable,
	}
}

// Do invokes fn up to cfg.MaxAttempts times. Non-retryable errors propagate
// immediately; once attempts are exhausted the last retryable error is
// returned. Context cancellation aborts the wait between attempts.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Factor <= 0 {
		cfg.Factor = 2
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if cfg.Jitter {
			// Scale by [0.5, 1.5) so concurrent pipelines don't retry in lockstep.
			wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * cfg.Factor)
	}
	return zero, lastErr
}
