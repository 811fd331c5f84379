package gateway

import (
	"log/slog"
	"sync"
)

// Handler consumes one decoded event. Handlers run synchronously on
// the session's read loop, so events arrive in the exact order the
// stream delivered them; handlers that need to block should hand off
// to their own goroutine.
type Handler func(Event)

// Router fans decoded events out to registered consumers. The command
// dispatch shell and any other collaborator registers here; this is
// the only sanctioned way external code observes the stream.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	any      []Handler
	onError  func(eventType string, err error)
	log      *slog.Logger
}

// NewRouter creates an empty Router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[string][]Handler),
		log:      logger,
	}
}

// On registers a handler for one event type name (e.g.
// "MESSAGE_CREATE"). Multiple handlers for the same type run in
// registration order.
func (r *Router) On(eventType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
}

// OnAny registers a handler for every event, including Unknown ones.
func (r *Router) OnAny(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.any = append(r.any, h)
}

// OnDecodeError registers a hook called when a known event type's
// payload fails to decode. The event is dropped; the session is
// unaffected.
func (r *Router) OnDecodeError(fn func(eventType string, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// dispatch publishes one event to the type's handlers and then the
// catch-all handlers.
func (r *Router) dispatch(ev Event) {
	r.mu.RLock()
	typed := r.handlers[ev.EventType()]
	catchAll := r.any
	r.mu.RUnlock()
	for _, h := range typed {
		h(ev)
	}
	for _, h := range catchAll {
		h(ev)
	}
}

// reportDecodeError logs a malformed payload and invokes the hook.
func (r *Router) reportDecodeError(eventType string, err error) {
	r.log.Warn("dropping malformed event payload", "event", eventType, "error", err)
	r.mu.RLock()
	hook := r.onError
	r.mu.RUnlock()
	if hook != nil {
		hook(eventType, err)
	}
}
