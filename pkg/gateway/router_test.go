package gateway

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterDispatchOrder(t *testing.T) {
	r := NewRouter(discardLogger())

	var order []string
	r.On("MESSAGE_CREATE", func(Event) { order = append(order, "first") })
	r.On("MESSAGE_CREATE", func(Event) { order = append(order, "second") })
	r.OnAny(func(Event) { order = append(order, "any") })

	r.dispatch(MessageCreate{})

	want := []string{"first", "second", "any"}
	if len(order) != len(want) {
		t.Fatalf("handlers ran %d times, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRouterTypedHandlerOnlySeesItsType(t *testing.T) {
	r := NewRouter(discardLogger())

	var got int
	r.On("MESSAGE_DELETE", func(Event) { got++ })
	r.dispatch(MessageCreate{})
	if got != 0 {
		t.Errorf("MESSAGE_DELETE handler ran for MESSAGE_CREATE")
	}
}

func TestRouterOnAnySeesUnknown(t *testing.T) {
	r := NewRouter(discardLogger())

	var got Event
	r.OnAny(func(ev Event) { got = ev })
	r.dispatch(Unknown{Type: "NEW_THING"})
	if got == nil || got.EventType() != "NEW_THING" {
		t.Errorf("catch-all did not receive unknown event: %v", got)
	}
}

func TestRouterDecodeErrorHook(t *testing.T) {
	r := NewRouter(discardLogger())

	var hookType string
	var hookErr error
	r.OnDecodeError(func(eventType string, err error) {
		hookType = eventType
		hookErr = err
	})

	cause := errors.New("bad payload")
	r.reportDecodeError("READY", cause)
	if hookType != "READY" {
		t.Errorf("hook event type = %q", hookType)
	}
	if !errors.Is(hookErr, cause) {
		t.Errorf("hook error = %v", hookErr)
	}
}
