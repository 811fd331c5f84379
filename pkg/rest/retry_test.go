package rest

import (
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyKinds(t *testing.T) {
	policy := DefaultRetryPolicy()

	if !policy.ShouldRetry(&Error{Kind: KindTransient}, 1) {
		t.Error("expected transient error to be retryable")
	}
	if !policy.ShouldRetry(&Error{Kind: KindRateLimited}, 1) {
		t.Error("expected rate-limited error to be retryable")
	}
	if policy.ShouldRetry(&Error{Kind: KindCaller}, 1) {
		t.Error("caller errors must never be retried")
	}
	if policy.ShouldRetry(&Error{Kind: KindAuth}, 1) {
		t.Error("auth errors must never be retried")
	}
	if policy.ShouldRetry(&Error{Kind: KindMalformed}, 1) {
		t.Error("malformed responses must never be retried")
	}
	if policy.ShouldRetry(errors.New("plain"), 1) {
		t.Error("non-dispatcher errors must not be retried")
	}
}

func TestRetryPolicyMaxAttempts(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.ShouldRetry(&Error{Kind: KindTransient}, policy.MaxAttempts) {
		t.Error("should not retry once attempts reach MaxAttempts")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}

	if d := policy.NextDelay(1); d != time.Second {
		t.Errorf("attempt 1: got %v, want 1s", d)
	}
	if d := policy.NextDelay(2); d != 2*time.Second {
		t.Errorf("attempt 2: got %v, want 2s", d)
	}
	if d := policy.NextDelay(3); d != 4*time.Second {
		t.Errorf("attempt 3: got %v, want 4s", d)
	}
}

func TestRetryPolicyMaxDelayCap(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		Multiplier:   10.0,
		MaxDelay:     30 * time.Second,
	}
	if d := policy.NextDelay(5); d > policy.MaxDelay {
		t.Errorf("delay %v exceeds max delay %v", d, policy.MaxDelay)
	}
}

func TestRetryPolicyJitterShrinksOnly(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Jitter:       0.5,
	}
	for i := 0; i < 50; i++ {
		d := policy.NextDelay(1)
		if d > time.Second || d < 500*time.Millisecond {
			t.Fatalf("jittered delay %v outside [500ms, 1s]", d)
		}
	}
}
