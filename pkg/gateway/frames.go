package gateway

import "encoding/json"

// Opcode tags every frame on the streaming connection.
type Opcode int

const (
	// OpDispatch carries a typed event (receive).
	OpDispatch Opcode = 0
	// OpHeartbeat keeps the connection alive (send, or receive as a
	// server-initiated demand for an immediate beat).
	OpHeartbeat Opcode = 1
	// OpIdentify starts a new session during the handshake (send).
	OpIdentify Opcode = 2
	// OpPresenceUpdate updates the client's presence (send).
	OpPresenceUpdate Opcode = 3
	// OpResume replays events missed since a known sequence (send).
	OpResume Opcode = 6
	// OpReconnect asks the client to reconnect and resume (receive).
	OpReconnect Opcode = 7
	// OpInvalidSession invalidates the session; the data payload is a
	// bool reporting whether a resume may still work (receive).
	OpInvalidSession Opcode = 9
	// OpHello opens the handshake and carries the heartbeat interval
	// (receive).
	OpHello Opcode = 10
	// OpHeartbeatAck acknowledges a heartbeat (receive).
	OpHeartbeatAck Opcode = 11
)

func (o Opcode) String() string {
	switch o {
	case OpDispatch:
		return "dispatch"
	case OpHeartbeat:
		return "heartbeat"
	case OpIdentify:
		return "identify"
	case OpPresenceUpdate:
		return "presence_update"
	case OpResume:
		return "resume"
	case OpReconnect:
		return "reconnect"
	case OpInvalidSession:
		return "invalid_session"
	case OpHello:
		return "hello"
	case OpHeartbeatAck:
		return "heartbeat_ack"
	default:
		return "unknown"
	}
}

// Frame is the JSON envelope for every message on the stream: an
// opcode, an opaque payload, and — on dispatch frames only — a
// sequence number and event type name.
type Frame struct {
	Op   Opcode          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  int64           `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
}

// Close codes the server uses when dropping the connection. Most are
// recoverable; the fatal ones mean reconnecting would only fail again.
const (
	CloseUnknownError         = 4000
	CloseInvalidSeq           = 4007
	CloseSessionTimedOut      = 4009
	CloseAuthenticationFailed = 4004
	CloseInvalidShard         = 4010
	CloseShardingRequired     = 4011
	CloseInvalidAPIVersion    = 4012
	CloseInvalidIntents       = 4013
	CloseDisallowedIntents    = 4014
)

// fatalCloseCode reports whether the close code is an authentication or
// configuration rejection that no amount of reconnecting will fix.
func fatalCloseCode(code int) bool {
	switch code {
	case CloseAuthenticationFailed, CloseInvalidShard, CloseShardingRequired,
		CloseInvalidAPIVersion, CloseInvalidIntents, CloseDisallowedIntents:
		return true
	}
	return false
}

// resumableCloseCode reports whether the session may still be resumed
// after the given close code. Invalid-sequence and timed-out sessions
// must re-identify from scratch.
func resumableCloseCode(code int) bool {
	switch code {
	case CloseInvalidSeq, CloseSessionTimedOut:
		return false
	}
	return !fatalCloseCode(code)
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"` // milliseconds
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Properties identifyProperties `json:"properties"`
	Shard      [2]int             `json:"shard"`
	Intents    Intents            `json:"intents"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// marshalRaw encodes outbound payload structs, which contain no values
// that can fail to marshal.
func marshalRaw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func heartbeatFrame(seq int64) Frame {
	return Frame{Op: OpHeartbeat, Data: marshalRaw(seq)}
}

func identifyFrame(token string, shard [2]int, intents Intents) Frame {
	return Frame{Op: OpIdentify, Data: marshalRaw(identifyData{
		Token: token,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "chatwire",
			Device:  "chatwire",
		},
		Shard:   shard,
		Intents: intents,
	})}
}

func resumeFrame(token, sessionID string, seq int64) Frame {
	return Frame{Op: OpResume, Data: marshalRaw(resumeData{
		Token:     token,
		SessionID: sessionID,
		Seq:       seq,
	})}
}
