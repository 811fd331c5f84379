package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20 // 1MB
)

// Conn is one persistent bidirectional frame stream. The session owns
// exactly one at a time; tests substitute an in-memory fake.
type Conn interface {
	// ReadFrame blocks until the next inbound frame. A *FrameError
	// means the frame was undecodable but the connection is still
	// healthy; a *CloseError carries the server's close code; any
	// other error means the connection is dead.
	ReadFrame() (Frame, error)
	WriteFrame(Frame) error
	// Close sends a close frame with the given code and tears the
	// connection down.
	Close(code int, reason string) error
}

// Dialer opens stream connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// CloseError reports the server closing the stream.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("stream closed: %d %s", e.Code, e.Reason)
}

// FrameError reports an inbound frame that could not be decoded. The
// connection remains usable.
type FrameError struct {
	err error
}

func (e *FrameError) Error() string { return fmt.Sprintf("malformed frame: %v", e.err) }

func (e *FrameError) Unwrap() error { return e.err }

// wsConn adapts a websocket connection to the Conn interface. Writes
// are serialized: the heartbeat timer and the session loop both send.
type wsConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsConn) ReadFrame() (Frame, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return Frame{}, &CloseError{Code: ce.Code, Reason: ce.Text}
		}
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &FrameError{err: err}
	}
	return f, nil
}

func (c *wsConn) WriteFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) Close(code int, reason string) error {
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason))
	c.writeMu.Unlock()
	return c.conn.Close()
}

type wsDialer struct {
	dialer *websocket.Dialer
}

// NewDialer returns the production websocket Dialer.
func NewDialer() Dialer {
	return &wsDialer{dialer: &websocket.Dialer{
		HandshakeTimeout: 30 * time.Second,
	}}
}

func (d *wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return &wsConn{conn: conn}, nil
}
