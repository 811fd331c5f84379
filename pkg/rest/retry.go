package rest

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls how failed requests are retried with exponential
// backoff. Rate-limited requests ignore the computed delay and use the
// server-specified wait instead.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	// Jitter is the fraction of the delay randomized away to spread
	// retries from concurrent callers. Zero disables jitter.
	Jitter float64
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 4 attempts, 500ms initial delay, 2x multiplier, 10s max delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Second,
		Jitter:       0.25,
	}
}

// ShouldRetry returns true if the error is retryable and the attempt
// count has not exceeded MaxAttempts. Only transient and rate-limited
// failures are retryable; everything else is definitive.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}

// NextDelay returns the backoff delay for the given attempt number
// (1-indexed). The delay is InitialDelay * Multiplier^(attempt-1),
// capped at MaxDelay, minus up to Jitter of itself.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		delay -= delay * p.Jitter * rand.Float64()
	}
	return time.Duration(delay)
}
