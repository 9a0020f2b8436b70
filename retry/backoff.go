// Package retry implements the capped exponential-backoff retry policy
// of spec §4.1: retryable failures (RateLimited, Timeout,
// ServiceUnavailable/Transport) are retried with delay
// delay*multiplier^(attempt-1); AuthFailure and BadRequest are never
// retried; after the final attempt the last error is returned unchanged.
//
// Adapted from the teacher's llm/retry/backoff.go: same policy/executor
// split, generalized so "retryable" is decided by the Provider
// Invoker's typed error classification instead of "retry everything".
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Policy configures the retry loop.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration // 0 means unbounded

	// IsRetryable decides whether err should trigger another attempt.
	// A nil func retries every non-nil error.
	IsRetryable func(err error) bool

	// OnRetry is an optional observability hook invoked before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy mirrors §4.1's defaults: 3 retries, 1s initial delay,
// multiplier 2.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2,
	}
}

// Do executes fn, retrying per policy on retryable errors. On a
// non-retryable error, or once retries are exhausted, the last error is
// returned unchanged. A context cancelled during a backoff wait returns
// the context error wrapped with "retry cancelled".
func Do(ctx context.Context, policy Policy, logger *zap.Logger, fn func(attempt int) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryable := policy.IsRetryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateDelay(policy, attempt)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, lastErr, delay)
			}
			logger.Debug("retrying after backoff",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt >= policy.MaxRetries {
			break
		}
	}

	return lastErr
}

// calculateDelay implements delay * multiplier^(attempt-1), capped at
// MaxDelay when one is configured. No jitter is applied — the spec's
// TESTABLE PROPERTIES (§8) rely on the exact formula.
func calculateDelay(policy Policy, attempt int) time.Duration {
	multiplier := policy.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	delay := float64(policy.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
	}
	if policy.MaxDelay > 0 && time.Duration(delay) > policy.MaxDelay {
		return policy.MaxDelay
	}
	return time.Duration(delay)
}

// IsCancelled reports whether err originates from context cancellation,
// useful for callers distinguishing a retry-loop abort from an upstream
// failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
