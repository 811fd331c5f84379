package chatwire

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/chatwire/pkg/gateway"
)

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/c1/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body MessageSend
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Content != "hello" {
			t.Errorf("content = %q", body.Content)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "m1", "channel_id": "c1", "content": "hello"})
	}))
	defer srv.Close()

	c, err := New(Config{
		Token:      "tok",
		BaseURL:    srv.URL,
		GatewayURL: "wss://stream.example",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg, err := c.SendMessage(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ID != "m1" || msg.Content != "hello" {
		t.Errorf("message %+v", msg)
	}
}

func TestRespondToInteraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interactions/i1/tok-abc/callback" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Type int          `json:"type"`
			Data *MessageSend `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Type != InteractionResponseMessage {
			t.Errorf("type = %d", body.Type)
		}
		if body.Data == nil || body.Data.Content != "pong" {
			t.Errorf("data = %+v", body.Data)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Config{
		Token:      "tok",
		BaseURL:    srv.URL,
		GatewayURL: "wss://stream.example",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	i := gateway.Interaction{ID: "i1", Token: "tok-abc", ApplicationID: "app1"}
	if err := c.RespondToInteraction(context.Background(), i, "pong"); err != nil {
		t.Fatalf("RespondToInteraction: %v", err)
	}
}
