package config

import (
	"testing"
)

func TestFlatten_Nested(t *testing.T) {
	m := map[string]any{
		"api": map[string]any{
			"base_url":        "https://api.example.com",
			"timeout_seconds": 60.0,
		},
		"log_level": "info",
	}
	got := Flatten(m)
	if got["api.base_url"] != "https://api.example.com" {
		t.Errorf("expected api.base_url, got %v", got["api.base_url"])
	}
	if got["api.timeout_seconds"] != 60.0 {
		t.Errorf("expected api.timeout_seconds=60, got %v", got["api.timeout_seconds"])
	}
	if got["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", got["log_level"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestFlatten_DeeplyNested(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": "deep",
			},
		},
	}
	got := Flatten(m)
	if got["a.b.c"] != "deep" {
		t.Errorf("expected a.b.c=deep, got %v", got["a.b.c"])
	}
	if len(got) != 1 {
		t.Errorf("expected 1 key, got %d", len(got))
	}
}

func TestUnflatten_Nested(t *testing.T) {
	flat := map[string]any{
		"stream.shard_count": 4.0,
		"stream.gateway_url": "wss://stream.example.com",
		"log_level":          "info",
	}
	got := Unflatten(flat)
	stream, ok := got["stream"].(map[string]any)
	if !ok {
		t.Fatalf("expected stream to be map, got %T", got["stream"])
	}
	if stream["shard_count"] != 4.0 {
		t.Errorf("expected stream.shard_count=4, got %v", stream["shard_count"])
	}
	if stream["gateway_url"] != "wss://stream.example.com" {
		t.Errorf("expected stream.gateway_url, got %v", stream["gateway_url"])
	}
	if got["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", got["log_level"])
	}
}

func TestRoundTrip_FlattenUnflatten(t *testing.T) {
	original := map[string]any{
		"token":     "tok-abc",
		"log_level": "debug",
		"api": map[string]any{
			"base_url":     "https://api.example.com/v1",
			"max_inflight": 32.0,
		},
		"stream": map[string]any{
			"shard_index": 0.0,
			"shard_count": 2.0,
		},
	}

	restored := Unflatten(Flatten(original))

	if restored["token"] != original["token"] {
		t.Errorf("token mismatch: %v", restored["token"])
	}
	api := restored["api"].(map[string]any)
	if api["base_url"] != "https://api.example.com/v1" {
		t.Errorf("api.base_url mismatch: %v", api["base_url"])
	}
	if api["max_inflight"] != 32.0 {
		t.Errorf("api.max_inflight mismatch: %v", api["max_inflight"])
	}
	stream := restored["stream"].(map[string]any)
	if stream["shard_count"] != 2.0 {
		t.Errorf("stream.shard_count mismatch: %v", stream["shard_count"])
	}
}

func TestMaskSecrets(t *testing.T) {
	flat := map[string]any{
		"token":        "tok-secret-1234",
		"log_level":    "info",
		"api.base_url": "https://api.example.com",
	}
	got := MaskSecrets(flat)

	if got["token"] != "***1234" {
		t.Errorf("expected token=***1234, got %v", got["token"])
	}
	if got["log_level"] != "info" {
		t.Errorf("non-secret changed: %v", got["log_level"])
	}
	if got["api.base_url"] != "https://api.example.com" {
		t.Errorf("non-secret changed: %v", got["api.base_url"])
	}
}

func TestMaskSecrets_ShortValues(t *testing.T) {
	if got := MaskSecrets(map[string]any{"token": "ab"}); got["token"] != "***ab" {
		t.Errorf("expected ***ab for short secret, got %v", got["token"])
	}
	if got := MaskSecrets(map[string]any{"token": ""}); got["token"] != "" {
		t.Errorf("expected empty secret to stay empty, got %v", got["token"])
	}
}

func TestIsSecretKey(t *testing.T) {
	if !IsSecretKey("token") {
		t.Error("token should be secret")
	}
	if IsSecretKey("log_level") {
		t.Error("log_level should not be secret")
	}
}
