package rest

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a request failure. Transient and rate-limit failures
// are absorbed and retried inside the dispatcher; only the other kinds
// (or an exhausted retry budget) reach the caller.
type Kind int

const (
	// KindTransient covers connection-level failures and 5xx
	// responses. Retried with exponential backoff.
	KindTransient Kind = iota + 1
	// KindRateLimited is a 429 despite local bookkeeping. Retried
	// after the server-specified delay.
	KindRateLimited
	// KindAuth is a credential rejection (401). Fatal, never retried.
	KindAuth
	// KindCaller is any other 4xx. The request itself is wrong;
	// surfaced immediately, never retried.
	KindCaller
	// KindMalformed is a response body that could not be decoded.
	KindMalformed
	// KindTimeout means the call's total time budget (queue wait plus
	// round trip) was exceeded.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindAuth:
		return "auth"
	case KindCaller:
		return "caller"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the definitive failure returned to callers of the
// dispatcher. RequestID is the correlation id the call was issued
// under; Code and Message carry the service's error body when present.
type Error struct {
	Kind      Kind
	Status    int
	Code      int
	Message   string
	Route     string
	RequestID string
	// RetryAfter is the server-specified wait on rate-limit errors.
	RetryAfter time.Duration

	err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d, code %d)", e.Kind, e.Message, e.Status, e.Code)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}
	return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.err }

// IsKind reports whether err is a dispatcher Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
