package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

// ErrTooManyConnections is returned by AddClient when the observer
// connection limit is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func newClient(conn *websocket.Conn, b *Broadcaster) *client {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// enqueue hands a marshaled message to the write pump without blocking.
// It reports false when the client's buffer is full.
func (c *client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) sendJSON(msg WSMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans session state out to observer dashboards. Updates are
// coalesced into deltas on a throttle timer; full snapshots go out
// periodically and on connect so late or lossy clients converge. Every
// outbound payload passes through the privacy filter first.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	store      *session.Store
	privacy    *session.PrivacyFilter
	log        *zap.SugaredLogger
	throttle   time.Duration
	maxClients int
	seq        atomic.Uint64

	snapshotTicker *time.Ticker
	stopOnce       sync.Once
	stopCh         chan struct{}

	flushMu        sync.Mutex
	pendingUpdates []*session.State
	pendingRemoved []string
	flushTimer     *time.Timer
}

// NewBroadcaster starts the snapshot loop immediately. maxClients of zero
// means unlimited observers. Call Stop to release the loop.
func NewBroadcaster(log *zap.SugaredLogger, store *session.Store, throttle, snapshotInterval time.Duration, maxClients int) *Broadcaster {
	b := &Broadcaster{
		clients:    make(map[*client]bool),
		store:      store,
		privacy:    &session.PrivacyFilter{},
		log:        log,
		throttle:   throttle,
		maxClients: maxClients,
		stopCh:     make(chan struct{}),
	}

	b.snapshotTicker = time.NewTicker(snapshotInterval)
	go b.snapshotLoop()

	return b
}

// SetPrivacyFilter replaces the filter applied to all outbound session
// state. Safe to call while broadcasting.
func (b *Broadcaster) SetPrivacyFilter(f *session.PrivacyFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f == nil {
		f = &session.PrivacyFilter{}
	}
	b.privacy = f
}

// FilterSessions applies the privacy filter to a session list. The input
// slice and its elements are never modified.
func (b *Broadcaster) FilterSessions(states []*session.State) []*session.State {
	b.mu.RLock()
	f := b.privacy
	b.mu.RUnlock()
	return f.ApplyAll(states)
}

// AddClient registers an observer connection and queues the initial
// snapshot on it. The snapshot is stamped with the current stream
// position rather than a fresh number, so the counter only advances on
// broadcasts every observer receives and the stream stays contiguous
// for clients that were already connected.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := newClient(conn, b)
	b.clients[c] = true
	b.mu.Unlock()

	c.sendJSON(WSMessage{
		Type: MsgSnapshot,
		Seq:  b.seq.Load(),
		Payload: SnapshotPayload{
			Sessions: b.FilterSessions(b.store.GetAll()),
		},
	})

	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// QueueUpdate buffers changed sessions for the next delta flush.
func (b *Broadcaster) QueueUpdate(states []*session.State) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.pendingUpdates = append(b.pendingUpdates, states...)

	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

// QueueRemoval buffers removed session IDs for the next delta flush.
func (b *Broadcaster) QueueRemoval(ids []string) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.pendingRemoved = append(b.pendingRemoved, ids...)

	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

// PublishViolation pushes a proctoring violation to all observers
// immediately, bypassing the delta throttle.
func (b *Broadcaster) PublishViolation(sessionID string, v proctor.Violation) {
	b.broadcast(WSMessage{
		Type: MsgViolation,
		Payload: ViolationPayload{
			SessionID: sessionID,
			Violation: v,
		},
	})
}

// PublishProctorStatus pushes a monitoring snapshot for one session to all
// observers immediately.
func (b *Broadcaster) PublishProctorStatus(sessionID string, snap proctor.Snapshot) {
	b.broadcast(WSMessage{
		Type: MsgProctorStatus,
		Payload: ProctorStatusPayload{
			SessionID: sessionID,
			Snapshot:  snap,
		},
	})
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	updates := b.pendingUpdates
	removed := b.pendingRemoved
	b.pendingUpdates = nil
	b.pendingRemoved = nil
	b.flushTimer = nil
	b.flushMu.Unlock()

	if len(updates) == 0 && len(removed) == 0 {
		return
	}

	b.broadcast(WSMessage{
		Type: MsgDelta,
		Payload: DeltaPayload{
			Updates: b.FilterSessions(dedupeByID(updates)),
			Removed: removed,
		},
	})
}

// dedupeByID keeps only the last queued state per session so a burst of
// updates inside one throttle window collapses to a single entry.
func dedupeByID(states []*session.State) []*session.State {
	if len(states) < 2 {
		return states
	}
	last := make(map[string]int, len(states))
	for i, st := range states {
		last[st.ID] = i
	}
	out := make([]*session.State, 0, len(last))
	for i, st := range states {
		if last[st.ID] == i {
			out = append(out, st)
		}
	}
	return out
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stopCh:
			return
		case <-b.snapshotTicker.C:
			b.broadcast(WSMessage{
				Type: MsgSnapshot,
				Payload: SnapshotPayload{
					Sessions: b.FilterSessions(b.store.GetAll()),
				},
			})
		}
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	if msg.Seq == 0 {
		msg.Seq = b.seq.Add(1)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Errorw("broadcast marshal failed", "error", err, "type", msg.Type)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			// Client can't keep up, disconnect it.
			b.log.Warnw("observer too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop halts the snapshot loop and disconnects every observer. The
// broadcaster must not be reused afterwards.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		b.snapshotTicker.Stop()
	})

	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}
