package gateway

import (
	"encoding/json"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	raw := []byte(`{"op":0,"d":{"id":"1"},"s":7,"t":"MESSAGE_CREATE"}`)
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Op != OpDispatch || f.Seq != 7 || f.Type != "MESSAGE_CREATE" {
		t.Errorf("decoded frame %+v", f)
	}
}

func TestHeartbeatFrameEchoesSeq(t *testing.T) {
	f := heartbeatFrame(42)
	if f.Op != OpHeartbeat {
		t.Errorf("op = %s", f.Op)
	}
	if string(f.Data) != "42" {
		t.Errorf("data = %s, want 42", f.Data)
	}
}

func TestIdentifyFrame(t *testing.T) {
	f := identifyFrame("tok", [2]int{1, 4}, IntentGuildMessages)
	if f.Op != OpIdentify {
		t.Fatalf("op = %s", f.Op)
	}
	var d identifyData
	if err := json.Unmarshal(f.Data, &d); err != nil {
		t.Fatalf("decode identify: %v", err)
	}
	if d.Token != "tok" {
		t.Errorf("token = %q", d.Token)
	}
	if d.Shard != [2]int{1, 4} {
		t.Errorf("shard = %v", d.Shard)
	}
	if d.Intents != IntentGuildMessages {
		t.Errorf("intents = %d", d.Intents)
	}
}

func TestResumeFrame(t *testing.T) {
	f := resumeFrame("tok", "sess-9", 311)
	if f.Op != OpResume {
		t.Fatalf("op = %s", f.Op)
	}
	var d resumeData
	if err := json.Unmarshal(f.Data, &d); err != nil {
		t.Fatalf("decode resume: %v", err)
	}
	if d.SessionID != "sess-9" || d.Seq != 311 {
		t.Errorf("resume data %+v", d)
	}
}

func TestCloseCodeClassification(t *testing.T) {
	fatal := []int{
		CloseAuthenticationFailed, CloseInvalidShard, CloseShardingRequired,
		CloseInvalidAPIVersion, CloseInvalidIntents, CloseDisallowedIntents,
	}
	for _, code := range fatal {
		if !fatalCloseCode(code) {
			t.Errorf("code %d should be fatal", code)
		}
		if resumableCloseCode(code) {
			t.Errorf("code %d should not be resumable", code)
		}
	}
	for _, code := range []int{CloseInvalidSeq, CloseSessionTimedOut} {
		if fatalCloseCode(code) {
			t.Errorf("code %d should not be fatal", code)
		}
		if resumableCloseCode(code) {
			t.Errorf("code %d must force a fresh identify", code)
		}
	}
	if !resumableCloseCode(CloseUnknownError) {
		t.Error("code 4000 should be resumable")
	}
}
