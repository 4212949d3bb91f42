package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
	pingInterval  = 30 * time.Second
	pongTimeout   = 60 * time.Second
	writeTimeout  = 10 * time.Second
)

// Messages delivered to the bubbletea program.
type (
	// ConnectedMsg is sent once a dial succeeds.
	ConnectedMsg struct{}
	// DisconnectedMsg is sent when the read loop fails; the app should
	// re-issue Listen to reconnect.
	DisconnectedMsg struct{ Err error }

	SnapshotMsg struct{ Sessions []*Session }
	DeltaMsg    struct {
		Updates []*Session
		Removed []string
	}
	ViolationMsg struct {
		SessionID string
		Violation Violation
	}
	ProctorStatusMsg struct {
		SessionID string
		Snapshot  ProctorSnapshot
	}
	CameraStatusMsg struct {
		SessionID string
		Status    string
		Message   string
	}
	ServerErrorMsg struct{ Message string }

	// SeqGapMsg wraps a message whose sequence number skipped ahead,
	// usually a lost broadcast. The periodic snapshot reconciles state;
	// this only surfaces the gap for the debug log.
	SeqGapMsg struct {
		Expected uint64
		Got      uint64
		Inner    tea.Msg
	}
)

// WSClient maintains a WebSocket connection to the observer endpoint.
// Authentication rides on the upgrade request: the server checks the
// X-Greenroom-Token header before accepting, and never reads client frames
// afterwards.
type WSClient struct {
	url   string
	token string

	mu     sync.Mutex
	conn   *websocket.Conn
	maxSeq uint64

	writeMu    sync.Mutex
	pingCancel context.CancelFunc
}

// NewWS builds a client for the given observer URL. Token may be empty when
// the server runs without auth.
func NewWS(url, token string) *WSClient {
	return &WSClient{url: url, token: token}
}

// Listen dials the server, retrying with exponential backoff until the
// context is cancelled. It returns ConnectedMsg on success.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		backoff := reconnectBase
		for {
			if err := c.dial(ctx); err == nil {
				return ConnectedMsg{}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
		}
	}
}

func (c *WSClient) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.token != "" {
		header.Set("X-Greenroom-Token", c.token)
	}
	conn, resp, err := dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	c.mu.Lock()
	if c.pingCancel != nil {
		c.pingCancel()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.maxSeq = 0
	pingCtx, cancel := context.WithCancel(ctx)
	c.pingCancel = cancel
	c.mu.Unlock()

	go c.pingLoop(pingCtx, conn)
	return nil
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// ReadLoop reads frames until one produces a message the app cares about,
// then returns it. The app re-issues ReadLoop after handling each message.
func (c *WSClient) ReadLoop() tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return DisconnectedMsg{Err: err}
			}
			var env WSMessage
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			msg := c.dispatch(env)
			if msg == nil {
				continue
			}
			if gap := c.trackSeq(env.Seq); gap > 0 {
				return SeqGapMsg{Expected: gap, Got: env.Seq, Inner: msg}
			}
			return msg
		}
	}
}

// trackSeq records the envelope sequence and returns the expected value when
// a gap opens, zero otherwise. The server stamps before it enqueues, so two
// frames can arrive swapped; anything at or below the high water mark is a
// late frame, not a loss.
func (c *WSClient) trackSeq(seq uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	high := c.maxSeq
	if seq <= high {
		return 0
	}
	c.maxSeq = seq
	if high != 0 && seq > high+1 {
		return high + 1
	}
	return 0
}

func (c *WSClient) dispatch(env WSMessage) tea.Msg {
	switch env.Type {
	case MsgSnapshot:
		var p SnapshotPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return SnapshotMsg{Sessions: p.Sessions}
	case MsgDelta:
		var p DeltaPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return DeltaMsg{Updates: p.Updates, Removed: p.Removed}
	case MsgViolation:
		var p ViolationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return ViolationMsg{SessionID: p.SessionID, Violation: p.Violation}
	case MsgProctorStatus:
		var p ProctorStatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return ProctorStatusMsg{SessionID: p.SessionID, Snapshot: p.Snapshot}
	case MsgCameraStatus:
		var p CameraStatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return CameraStatusMsg{SessionID: p.SessionID, Status: p.Status, Message: p.Message}
	case MsgError:
		var p ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil
		}
		return ServerErrorMsg{Message: p.Message}
	}
	return nil
}

// Close tears down the connection and stops the ping loop.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingCancel != nil {
		c.pingCancel()
		c.pingCancel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
