// Package gateway maintains the persistent streaming connection to the
// platform: the handshake, heartbeat cadence, sequence tracking,
// resume-after-drop, and backoff-governed reconnection. Decoded events
// fan out through the Router to registered consumers in strict arrival
// order.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/user/chatwire/internal/clock"
)

// apiVersion is the stream protocol version requested at dial time.
const apiVersion = 1

// Status is the session's connection lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusAwaitingHello
	StatusIdentifying
	StatusResuming
	StatusReady
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusAwaitingHello:
		return "awaiting_hello"
	case StatusIdentifying:
		return "identifying"
	case StatusResuming:
		return "resuming"
	case StatusReady:
		return "ready"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// SessionState is a point-in-time copy of the session's connection
// identity. Only the session itself mutates the underlying state.
type SessionState struct {
	Status    Status
	SessionID string
	Seq       int64
	Shard     [2]int
}

// Backoff governs reconnect delays: exponential growth from Base,
// capped at Max, with up to Jitter of each delay randomized away so a
// fleet of clients does not reconnect in lockstep.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// DefaultBackoff returns the reconnect policy used when none is
// configured: 1s base, 2x growth, 60s cap, 25% jitter.
func DefaultBackoff() *Backoff {
	return &Backoff{
		Base:   time.Second,
		Max:    60 * time.Second,
		Jitter: 0.25,
	}
}

// Delay returns the wait before reconnect attempt number attempt
// (1-indexed).
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.Base) * math.Pow(2, float64(attempt-1))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	if b.Jitter > 0 {
		delay -= delay * b.Jitter * rand.Float64()
	}
	return time.Duration(delay)
}

// FatalError is an authentication or configuration rejection from the
// server. The session halts permanently; reconnecting would only be
// rejected again.
type FatalError struct {
	Code   int
	Reason string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("stream rejected: %d %s", e.Code, e.Reason)
}

var (
	errReconnectRequested = errors.New("server requested reconnect")
	errSessionInvalidated = errors.New("session invalidated by server")
)

// Config configures a Session. Token and ResolveGatewayURL are
// required; everything else defaults.
type Config struct {
	Token   string
	Intents Intents
	// Shard is the (index, count) pair partitioning the event stream.
	// The zero value means the single shard of an unsharded account.
	Shard [2]int
	// ResolveGatewayURL returns the URL for a fresh (non-resume)
	// connection, typically by asking the HTTP surface.
	ResolveGatewayURL func(ctx context.Context) (string, error)

	Dialer  Dialer
	Clock   clock.Clock
	Logger  *slog.Logger
	Backoff *Backoff
	// HeartbeatJitter returns the fraction of the heartbeat interval
	// to wait before the first beat, spreading reconnecting clients
	// apart. Defaults to a uniform random draw.
	HeartbeatJitter func() float64
}

// Session owns one logical streaming connection. All connection state
// (session id, sequence, heartbeat bookkeeping) is mutated only by the
// session's own goroutines; other components observe it through
// published events or State copies.
type Session struct {
	token      string
	intents    Intents
	shard      [2]int
	resolveURL func(ctx context.Context) (string, error)

	dialer  Dialer
	clock   clock.Clock
	log     *slog.Logger
	backoff *Backoff
	jitter  func() float64
	router  *Router

	mu                sync.Mutex
	status            Status
	sessionID         string
	resumeURL         string
	seq               int64
	heartbeatInterval time.Duration
	lastSent          time.Time
	lastAck           time.Time
	attempts          int
}

// NewSession creates a Session. It does not connect; call Run.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Token == "" {
		return nil, errors.New("gateway: token required")
	}
	if cfg.ResolveGatewayURL == nil {
		return nil, errors.New("gateway: ResolveGatewayURL required")
	}
	s := &Session{
		token:      cfg.Token,
		intents:    cfg.Intents,
		shard:      cfg.Shard,
		resolveURL: cfg.ResolveGatewayURL,
		dialer:     cfg.Dialer,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		backoff:    cfg.Backoff,
		jitter:     cfg.HeartbeatJitter,
	}
	if s.intents == 0 {
		s.intents = DefaultIntents()
	}
	if s.shard[1] == 0 {
		s.shard = [2]int{0, 1}
	}
	if s.dialer == nil {
		s.dialer = NewDialer()
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.backoff == nil {
		s.backoff = DefaultBackoff()
	}
	if s.jitter == nil {
		s.jitter = rand.Float64
	}
	s.router = NewRouter(s.log)
	return s, nil
}

// Router returns the event router consumers register with.
func (s *Session) Router() *Router { return s.router }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a copy of the session's connection identity.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Status:    s.status,
		SessionID: s.sessionID,
		Seq:       s.seq,
		Shard:     s.shard,
	}
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	prev := s.status
	s.status = st
	s.mu.Unlock()
	if prev != st {
		s.log.Debug("session status", "from", prev, "to", st)
	}
}

// Run connects and services the stream until ctx is cancelled or the
// server rejects the session fatally. Transient failures reconnect
// forever under backoff, resuming when the server allows it. Run
// returns nil on cancellation and the *FatalError otherwise.
func (s *Session) Run(ctx context.Context) error {
	for {
		err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			s.setStatus(StatusDisconnected)
			return nil
		}
		var fatal *FatalError
		if errors.As(err, &fatal) {
			s.setStatus(StatusDisconnected)
			s.log.Error("session halted", "error", err)
			return err
		}
		s.setStatus(StatusReconnecting)
		s.mu.Lock()
		s.attempts++
		attempt := s.attempts
		s.mu.Unlock()
		delay := s.backoff.Delay(attempt)
		s.log.Warn("stream connection lost",
			"error", err,
			"attempt", attempt,
			"reconnect_in", delay,
		)
		select {
		case <-s.clock.After(delay):
		case <-ctx.Done():
			s.setStatus(StatusDisconnected)
			return nil
		}
	}
}

// gatewayParams appends the protocol version and encoding query.
func gatewayParams(url string) string {
	return fmt.Sprintf("%s/?v=%d&encoding=json", url, apiVersion)
}

// connectOnce runs one connection from dial to death: handshake,
// identify or resume, then the read loop with the heartbeat timer
// alongside. The returned error classifies what killed the connection.
func (s *Session) connectOnce(ctx context.Context) error {
	s.setStatus(StatusConnecting)

	s.mu.Lock()
	url := ""
	resuming := s.sessionID != "" && s.resumeURL != ""
	if resuming {
		url = s.resumeURL
	}
	s.mu.Unlock()
	if url == "" {
		fresh, err := s.resolveURL(ctx)
		if err != nil {
			return fmt.Errorf("resolve gateway url: %w", err)
		}
		url = fresh
	}

	conn, err := s.dialer.Dial(ctx, gatewayParams(url))
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close(CloseUnknownError, "reconnecting")

	// Cancellation must unblock the read loop, which otherwise sits in
	// a blocking read until the server sends something.
	stop := context.AfterFunc(ctx, func() {
		conn.Close(CloseUnknownError, "shutting down")
	})
	defer stop()

	s.setStatus(StatusAwaitingHello)
	first, err := conn.ReadFrame()
	if err != nil {
		return s.classifyReadError(err)
	}
	if first.Op != OpHello {
		return fmt.Errorf("handshake: expected hello, got %s", first.Op)
	}
	var hello helloData
	if err := json.Unmarshal(first.Data, &hello); err != nil {
		return fmt.Errorf("handshake: decode hello: %w", err)
	}
	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
	if interval <= 0 {
		return fmt.Errorf("handshake: invalid heartbeat interval %dms", hello.HeartbeatInterval)
	}

	s.mu.Lock()
	s.heartbeatInterval = interval
	s.lastSent = time.Time{}
	s.lastAck = time.Time{}
	sessionID, seq := s.sessionID, s.seq
	s.mu.Unlock()

	if resuming {
		s.setStatus(StatusResuming)
		s.log.Info("resuming session", "session_id", sessionID, "seq", seq)
		err = conn.WriteFrame(resumeFrame(s.token, sessionID, seq))
	} else {
		s.setStatus(StatusIdentifying)
		err = conn.WriteFrame(identifyFrame(s.token, s.shard, s.intents))
	}
	if err != nil {
		return fmt.Errorf("handshake send: %w", err)
	}

	hbCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.heartbeatLoop(hbCtx, conn, interval)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	return s.readLoop(conn)
}

// readLoop services inbound frames until the connection dies. It is
// the only reader; events publish from here, so consumers see them in
// exact arrival order.
func (s *Session) readLoop(conn Conn) error {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			var fe *FrameError
			if errors.As(err, &fe) {
				s.log.Warn("dropping malformed frame", "error", err)
				continue
			}
			return s.classifyReadError(err)
		}
		switch frame.Op {
		case OpDispatch:
			s.handleDispatch(frame)
		case OpHeartbeat:
			// Server-initiated demand for an immediate beat.
			if err := s.sendHeartbeat(conn); err != nil {
				return fmt.Errorf("heartbeat send: %w", err)
			}
		case OpHeartbeatAck:
			s.mu.Lock()
			s.lastAck = s.clock.Now()
			s.mu.Unlock()
		case OpReconnect:
			return errReconnectRequested
		case OpInvalidSession:
			var resumable bool
			_ = json.Unmarshal(frame.Data, &resumable)
			if !resumable {
				s.clearSession()
			}
			return fmt.Errorf("%w (resumable=%t)", errSessionInvalidated, resumable)
		default:
			s.log.Debug("ignoring frame", "op", frame.Op)
		}
	}
}

// classifyReadError decides whether a dead connection is fatal,
// resumable, or requires a full re-identify.
func (s *Session) classifyReadError(err error) error {
	var ce *CloseError
	if errors.As(err, &ce) {
		if fatalCloseCode(ce.Code) {
			s.clearSession()
			return &FatalError{Code: ce.Code, Reason: ce.Reason}
		}
		if !resumableCloseCode(ce.Code) {
			s.clearSession()
		}
		return ce
	}
	return err
}

// handleDispatch records the frame's sequence number, decodes the
// event, and publishes it. The sequence is stored before publishing so
// a consumer reacting to event N can rely on N's sequence already
// being what a resume would send.
func (s *Session) handleDispatch(frame Frame) {
	s.mu.Lock()
	if frame.Seq > s.seq {
		s.seq = frame.Seq
	}
	s.mu.Unlock()

	ev, err := decodeEvent(frame.Type, frame.Data)
	if err != nil {
		s.router.reportDecodeError(frame.Type, err)
		return
	}
	switch ev := ev.(type) {
	case Ready:
		s.mu.Lock()
		s.sessionID = ev.SessionID
		s.resumeURL = ev.ResumeGatewayURL
		s.status = StatusReady
		s.attempts = 0
		s.mu.Unlock()
		s.log.Info("session ready",
			"session_id", ev.SessionID,
			"shard_index", s.shard[0],
			"shard_count", s.shard[1],
		)
	case Resumed:
		s.mu.Lock()
		s.status = StatusReady
		s.attempts = 0
		s.mu.Unlock()
		s.log.Info("session resumed", "seq", frame.Seq)
	}
	s.router.dispatch(ev)
}

// sendHeartbeat writes one beat echoing the last seen sequence.
func (s *Session) sendHeartbeat(conn Conn) error {
	s.mu.Lock()
	seq := s.seq
	s.lastSent = s.clock.Now()
	s.mu.Unlock()
	return conn.WriteFrame(heartbeatFrame(seq))
}

// heartbeatLoop beats on the server-supplied cadence, jittering only
// the first beat. A beat that was never acknowledged by the next tick
// means the connection is zombied: it is torn down so the read loop
// fails over to a resume.
func (s *Session) heartbeatLoop(ctx context.Context, conn Conn, interval time.Duration) {
	delay := time.Duration(s.jitter() * float64(interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(delay):
		}
		s.mu.Lock()
		missed := !s.lastSent.IsZero() && s.lastSent.After(s.lastAck)
		s.mu.Unlock()
		if missed {
			s.log.Warn("heartbeat ack missed, closing zombied connection")
			conn.Close(CloseUnknownError, "heartbeat ack timeout")
			return
		}
		if err := s.sendHeartbeat(conn); err != nil {
			return
		}
		delay = interval
	}
}

// clearSession drops the resume state so the next connection performs
// a full re-identify.
func (s *Session) clearSession() {
	s.mu.Lock()
	s.sessionID = ""
	s.resumeURL = ""
	s.seq = 0
	s.mu.Unlock()
}
