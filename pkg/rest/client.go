// Package rest issues request/response calls against the platform's
// HTTP surface. The Client multiplexes arbitrarily many concurrent
// callers while respecting the per-route and global rate limits the
// service reports; callers see a decoded success, one definitive
// *Error, or a timeout — never the retries in between.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/user/chatwire/internal/clock"
	"github.com/user/chatwire/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the hosted platform's API root. Self-hosted
	// deployments override it through Options.
	DefaultBaseURL = "https://api.chatwire.dev/v1"

	defaultTimeout     = 60 * time.Second
	defaultMaxInflight = 64

	// Default global window when the deployment does not configure
	// one: 50 calls per second, matching the hosted platform's cap.
	defaultGlobalLimit  = 50
	defaultGlobalWindow = time.Second

	headerRemaining  = "X-RateLimit-Remaining"
	headerResetAfter = "X-RateLimit-Reset-After"
	headerBucket     = "X-RateLimit-Bucket"
	headerGlobal     = "X-RateLimit-Global"
	headerRetryAfter = "Retry-After"
	headerRequestID  = "X-Request-ID"
)

// Client dispatches HTTP calls, consulting the rate-limit Tracker
// before every send and feeding every response's headers back into it.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	limiter   *ratelimit.Tracker
	retry     *RetryPolicy
	inflight  *semaphore.Weighted
	clock     clock.Clock
	log       *slog.Logger
	timeout   time.Duration
	userAgent string
}

// Options configures optional Client behavior. The zero value selects
// defaults for every field.
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Limiter     *ratelimit.Tracker
	Retry       *RetryPolicy
	Clock       clock.Clock
	Logger      *slog.Logger
	MaxInflight int64
	// Timeout bounds each call's total time: queue wait for budget
	// plus transport round trip, across all retries.
	Timeout time.Duration
}

// New creates a Client authenticating with the given bot token.
func New(token string, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	c := &Client{
		baseURL:   opts.BaseURL,
		token:     token,
		http:      opts.HTTPClient,
		limiter:   opts.Limiter,
		retry:     opts.Retry,
		clock:     opts.Clock,
		log:       opts.Logger,
		timeout:   opts.Timeout,
		userAgent: "chatwire (+https://github.com/user/chatwire)",
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(defaultGlobalLimit, defaultGlobalWindow, c.clock)
	}
	if c.retry == nil {
		c.retry = DefaultRetryPolicy()
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	maxInflight := opts.MaxInflight
	if maxInflight <= 0 {
		maxInflight = defaultMaxInflight
	}
	c.inflight = semaphore.NewWeighted(maxInflight)
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c
}

// Limiter exposes the rate-limit tracker shared by all calls.
func (c *Client) Limiter() *ratelimit.Tracker { return c.limiter }

// Do sends the routed call with a generated correlation id. body is
// JSON-encoded when non-nil; a non-nil out receives the decoded
// response body.
func (c *Client) Do(ctx context.Context, r Route, body, out any) error {
	return c.DoWith(ctx, uuid.NewString(), r, body, out)
}

// DoWith is Do with a caller-supplied correlation id. The id appears in
// logs and on the returned *Error; the dispatcher does not deduplicate
// retries beyond that — idempotency is the caller's responsibility.
func (c *Client) DoWith(ctx context.Context, requestID string, r Route, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return c.timeoutError(r, requestID, err)
	}
	defer c.inflight.Release(1)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindCaller, Route: r.String(), RequestID: requestID,
				Message: fmt.Sprintf("encode request body: %v", err)}
		}
	}

	key := r.BucketKey()
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := c.awaitBudget(ctx, key, r, requestID); err != nil {
			return err
		}

		resp, err := c.send(ctx, r, payload, requestID)
		if err != nil {
			if ctx.Err() != nil {
				// The reserved global slot went unused.
				c.limiter.ReleaseGlobal()
				return c.timeoutError(r, requestID, ctx.Err())
			}
			lastErr = &Error{Kind: KindTransient, Route: r.String(), RequestID: requestID, err: err}
		} else {
			lastErr = c.handleResponse(resp, r, requestID, out)
			if lastErr == nil {
				return nil
			}
		}

		if !c.retry.ShouldRetry(lastErr, attempt) {
			return lastErr
		}
		delay := c.retry.NextDelay(attempt)
		if e, ok := lastErr.(*Error); ok && e.Kind == KindRateLimited && e.RetryAfter > 0 {
			delay = e.RetryAfter
		}
		c.log.Warn("request retry",
			"request_id", requestID,
			"route", r.String(),
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)
		select {
		case <-c.clock.After(delay):
		case <-ctx.Done():
			return c.timeoutError(r, requestID, ctx.Err())
		}
	}
}

// awaitBudget blocks until both the route bucket and the global window
// have budget, or the call's time budget runs out.
func (c *Client) awaitBudget(ctx context.Context, key string, r Route, requestID string) error {
	for {
		wait := c.limiter.Reserve(key)
		if wait == 0 {
			return nil
		}
		c.log.Debug("waiting for rate limit budget",
			"request_id", requestID,
			"bucket", key,
			"wait", wait,
		)
		select {
		case <-c.clock.After(wait):
		case <-ctx.Done():
			return c.timeoutError(r, requestID, ctx.Err())
		}
	}
}

func (c *Client) send(ctx context.Context, r Route, payload []byte, requestID string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// apiError is the service's JSON error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleResponse commits the response's rate-limit headers and
// classifies the status. A nil return means out (if any) was decoded.
func (c *Client) handleResponse(resp *http.Response, r Route, requestID string, out any) error {
	defer resp.Body.Close()
	data, readErr := io.ReadAll(resp.Body)

	c.commitHeaders(r.BucketKey(), resp.Header)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if readErr != nil {
			return &Error{Kind: KindTransient, Status: resp.StatusCode,
				Route: r.String(), RequestID: requestID, err: readErr}
		}
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindMalformed, Status: resp.StatusCode,
				Route: r.String(), RequestID: requestID, err: err}
		}
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.NoteViolation()
		e := &Error{Kind: KindRateLimited, Status: resp.StatusCode,
			Route: r.String(), RequestID: requestID,
			RetryAfter: retryAfter(resp.Header, data)}
		if resp.Header.Get(headerGlobal) == "true" {
			e.Message = "global rate limit exceeded"
		}
		return e

	case resp.StatusCode >= 500:
		return &Error{Kind: KindTransient, Status: resp.StatusCode,
			Route: r.String(), RequestID: requestID}

	case resp.StatusCode == http.StatusUnauthorized:
		e := &Error{Kind: KindAuth, Status: resp.StatusCode,
			Route: r.String(), RequestID: requestID}
		fillAPIError(e, data)
		return e

	default:
		e := &Error{Kind: KindCaller, Status: resp.StatusCode,
			Route: r.String(), RequestID: requestID}
		fillAPIError(e, data)
		return e
	}
}

// commitHeaders refreshes the bucket from the response's rate-limit
// headers. The server is the single source of truth for remaining
// budget; missing headers leave the advisory state untouched.
func (c *Client) commitHeaders(key string, h http.Header) {
	remainingStr := h.Get(headerRemaining)
	if remainingStr == "" {
		return
	}
	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return
	}
	var resetAfter time.Duration
	if secs, err := strconv.ParseFloat(h.Get(headerResetAfter), 64); err == nil {
		resetAfter = time.Duration(secs * float64(time.Second))
	}
	c.limiter.Commit(key, remaining, resetAfter, h.Get(headerBucket))
}

// retryAfter extracts the server-specified wait from a 429, preferring
// the JSON body's sub-second precision over the Retry-After header.
func retryAfter(h http.Header, data []byte) time.Duration {
	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	if secs, err := strconv.ParseFloat(h.Get(headerRetryAfter), 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return time.Second
}

func fillAPIError(e *Error, data []byte) {
	var body apiError
	if err := json.Unmarshal(data, &body); err == nil {
		e.Code = body.Code
		e.Message = body.Message
	}
}

func (c *Client) timeoutError(r Route, requestID string, cause error) *Error {
	return &Error{Kind: KindTimeout, Route: r.String(), RequestID: requestID, err: cause}
}

// Get sends a GET call and decodes the response into out.
func (c *Client) Get(ctx context.Context, r Route, out any) error {
	return c.Do(ctx, r, nil, out)
}

// Post sends a POST call with a JSON body, decoding into out when non-nil.
func (c *Client) Post(ctx context.Context, r Route, body, out any) error {
	return c.Do(ctx, r, body, out)
}

// Patch sends a PATCH call with a JSON body, decoding into out when non-nil.
func (c *Client) Patch(ctx context.Context, r Route, body, out any) error {
	return c.Do(ctx, r, body, out)
}

// Put sends a PUT call, usually bodiless (reactions, role grants).
func (c *Client) Put(ctx context.Context, r Route, body any) error {
	return c.Do(ctx, r, body, nil)
}

// Delete sends a DELETE call.
func (c *Client) Delete(ctx context.Context, r Route) error {
	return c.Do(ctx, r, nil, nil)
}

// GatewayInfo describes how to connect the streaming gateway.
type GatewayInfo struct {
	URL               string `json:"url"`
	Shards            int    `json:"shards"`
	SessionStartLimit struct {
		Total          int `json:"total"`
		Remaining      int `json:"remaining"`
		ResetAfter     int `json:"reset_after"`
		MaxConcurrency int `json:"max_concurrency"`
	} `json:"session_start_limit"`
}

// GatewayInfo fetches the streaming gateway's connection details.
func (c *Client) GatewayInfo(ctx context.Context) (*GatewayInfo, error) {
	var info GatewayInfo
	if err := c.Get(ctx, GetGateway(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
