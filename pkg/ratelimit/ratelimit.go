// Package ratelimit tracks per-route and global request quotas reported
// by the remote service. It is pure bookkeeping: the REST dispatcher
// consults it before every send and feeds every response's rate-limit
// headers back into it. The server's headers are authoritative; the
// counters kept here are advisory optimizations that keep the client
// from sending calls it already knows will be rejected.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/chatwire/internal/clock"
)

// maxViolationMargin caps how far the safety margin widens after
// repeated 429s. Beyond this the server headers alone govern pacing.
const maxViolationMargin = 3

// Bucket holds the advisory state for one rate-limited route group.
// All calls whose routes share a bucket key share one Bucket.
type Bucket struct {
	mu        sync.Mutex
	known     bool
	remaining int
	resetAt   time.Time
	name      string // server-assigned bucket id, for logging only
}

// GlobalWindow bounds total outbound calls across all routes in a
// rolling time window, independent of per-route buckets.
type GlobalWindow struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
}

// reserve consumes one global slot, or returns how long to wait for the
// current window to roll over.
func (g *GlobalWindow) reserve(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Sub(g.windowStart) >= g.window {
		g.windowStart = now
		g.count = 0
	}
	if g.count < g.limit {
		g.count++
		return 0
	}
	return g.windowStart.Add(g.window).Sub(now)
}

// release returns an unused slot, for calls that reserved budget but
// were cancelled before sending.
func (g *GlobalWindow) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.count > 0 {
		g.count--
	}
}

// Tracker maps bucket key to Bucket and owns the single GlobalWindow.
// It performs no network or retry work itself.
type Tracker struct {
	clock      clock.Clock
	global     *GlobalWindow
	violations atomic.Int64

	mu      sync.Mutex // guards the bucket map, not the buckets
	buckets map[string]*Bucket
}

// New creates a Tracker allowing globalLimit calls per rolling window.
func New(globalLimit int, window time.Duration, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.Real()
	}
	return &Tracker{
		clock:   clk,
		global:  &GlobalWindow{limit: globalLimit, window: window},
		buckets: make(map[string]*Bucket),
	}
}

func (t *Tracker) bucket(key string) *Bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.buckets[key]
	if !ok {
		b = &Bucket{}
		t.buckets[key] = b
	}
	return b
}

// margin is the number of remaining calls held back as a safety buffer,
// widened by past rate-limit violations.
func (t *Tracker) margin() int {
	v := int(t.violations.Load())
	if v > maxViolationMargin {
		return maxViolationMargin
	}
	return v
}

// Reserve consumes one slot of budget for the given bucket key. It
// returns zero when the call may be sent now, otherwise the duration
// until the later-expiring of the route bucket's reset and the global
// window's rollover. A nonzero return consumes no budget; callers wait
// and reserve again.
func (t *Tracker) Reserve(key string) time.Duration {
	now := t.clock.Now()
	b := t.bucket(key)

	b.mu.Lock()
	var routeWait time.Duration
	switch {
	case !b.known, !now.Before(b.resetAt):
		// No authoritative state yet, or the window has reset and the
		// refilled budget is unknown until the next Commit. Send
		// optimistically; the server is the source of truth.
	case b.remaining > t.margin():
		b.remaining--
	default:
		routeWait = b.resetAt.Sub(now)
	}
	b.mu.Unlock()

	if routeWait > 0 {
		return routeWait
	}

	globalWait := t.global.reserve(now)
	if globalWait > 0 {
		// Undo the advisory route decrement so the retry after the
		// global window rolls over sees the same budget.
		b.mu.Lock()
		if b.known && now.Before(b.resetAt) {
			b.remaining++
		}
		b.mu.Unlock()
		if routeWait > globalWait {
			return routeWait
		}
		return globalWait
	}
	return 0
}

// Commit overwrites the bucket's state with the authoritative values
// from a response's rate-limit headers.
func (t *Tracker) Commit(key string, remaining int, resetAfter time.Duration, name string) {
	b := t.bucket(key)
	b.mu.Lock()
	b.known = true
	b.remaining = remaining
	b.resetAt = t.clock.Now().Add(resetAfter)
	if name != "" {
		b.name = name
	}
	b.mu.Unlock()
}

// ReleaseGlobal returns a reserved global slot that went unused, such
// as when a call times out waiting in the queue.
func (t *Tracker) ReleaseGlobal() {
	t.global.release()
}

// NoteViolation records a 429 received despite local bookkeeping. Each
// violation widens the safety margin applied to future reservations.
func (t *Tracker) NoteViolation() {
	t.violations.Add(1)
}

// BucketName reports the server-assigned id last committed for the key,
// or empty if none was ever reported. Used for log correlation.
func (t *Tracker) BucketName(key string) string {
	b := t.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}
