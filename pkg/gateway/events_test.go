package gateway

import (
	"encoding/json"
	"testing"
)

func TestDecodeKnownEvent(t *testing.T) {
	payload := []byte(`{"id":"m1","channel_id":"c1","author":{"id":"u1","username":"ann"},"content":"hello"}`)
	ev, err := decodeEvent("MESSAGE_CREATE", payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mc, ok := ev.(MessageCreate)
	if !ok {
		t.Fatalf("got %T, want MessageCreate", ev)
	}
	if mc.ID != "m1" || mc.Author.Username != "ann" || mc.Content != "hello" {
		t.Errorf("decoded %+v", mc)
	}
}

func TestDecodeUnknownEventPreservesPayload(t *testing.T) {
	payload := json.RawMessage(`{"whatever":true}`)
	ev, err := decodeEvent("SOME_FUTURE_EVENT", payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, ok := ev.(Unknown)
	if !ok {
		t.Fatalf("got %T, want Unknown", ev)
	}
	if u.Type != "SOME_FUTURE_EVENT" {
		t.Errorf("type = %q", u.Type)
	}
	if string(u.Data) != string(payload) {
		t.Errorf("payload altered: %s", u.Data)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := decodeEvent("READY", []byte(`{"session_id":`))
	if err == nil {
		t.Fatal("expected decode error for truncated payload")
	}
}

func TestDecodeReady(t *testing.T) {
	payload := []byte(`{
		"v": 1,
		"user": {"id": "u1", "username": "bot", "bot": true},
		"session_id": "sess-1",
		"resume_gateway_url": "wss://resume.example",
		"shard": [0, 1]
	}`)
	ev, err := decodeEvent("READY", payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ready := ev.(Ready)
	if ready.SessionID != "sess-1" {
		t.Errorf("session id = %q", ready.SessionID)
	}
	if ready.ResumeGatewayURL != "wss://resume.example" {
		t.Errorf("resume url = %q", ready.ResumeGatewayURL)
	}
	if ready.Shard != [2]int{0, 1} {
		t.Errorf("shard = %v", ready.Shard)
	}
}
