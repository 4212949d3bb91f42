package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

// streamSession is the per-connection state of one candidate monitoring
// stream: the websocket carrying frames and focus events in, and
// monitoring state back out.
//
// Store counters are cumulative across reconnects, so each connection
// records the counts it found at attach time and writes baseline plus the
// controller's own tally.
type streamSession struct {
	srv    *Server
	id     string
	c      *client
	src    *StreamSource
	notify chan struct{}

	baseWarnings  int
	baseTabSwitch int
	baseLookAways int

	ctrlMu sync.Mutex
	ctrl   *proctor.Controller
}

// handleSessionStream upgrades a candidate connection and runs its read
// loop until the page disconnects. The session must already exist;
// candidate pages create it over REST before opening the stream.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request, sessionID string) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	state, ok := s.store.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("candidate upgrade failed", "session", sessionID, "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	s.log.Infow("candidate stream connected", "session", sessionID, "remote", r.RemoteAddr)

	st := &streamSession{
		srv:           s,
		id:            sessionID,
		c:             newClient(conn, s.broadcaster),
		src:           NewStreamSource(s.log.With("session", sessionID)),
		notify:        make(chan struct{}, 1),
		baseWarnings:  state.WarningCount,
		baseTabSwitch: state.TabSwitchCount,
		baseLookAways: state.LookAwayCount,
	}

	// Acquisition blocks until the page reports its camera, and the
	// report arrives through this connection's read loop. Attach runs on
	// the side so the loop keeps feeding the source.
	ctx, cancel := context.WithCancel(context.Background())
	attachDone := make(chan struct{})
	go func() {
		defer close(attachDone)
		st.attach(ctx)
	}()

	st.readPump(ctx, conn)

	cancel()
	<-attachDone
	st.teardown()
	s.log.Infow("candidate stream disconnected", "session", sessionID)
}

func (st *streamSession) attach(ctx context.Context) {
	hooks := proctor.Hooks{
		OnStatus:    st.onStatus,
		OnViolation: st.onViolation,
		OnChange:    st.nudge,
	}

	ctrl, err := st.srv.manager.Attach(ctx, st.id, st.src, st.src, hooks)
	if err != nil {
		st.srv.log.Warnw("camera acquisition failed", "session", st.id, "error", err)
	}
	if ctrl == nil {
		return
	}
	st.ctrlMu.Lock()
	st.ctrl = ctrl
	st.ctrlMu.Unlock()

	st.watch(ctx, ctrl)
}

// watch coalesces change notifications into state syncs. The hooks only
// nudge the channel; the snapshot read happens here, outside any
// controller callback.
func (st *streamSession) watch(ctx context.Context, ctrl *proctor.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-st.notify:
			st.sync(ctrl.Snapshot())
		}
	}
}

// sync pushes a monitoring snapshot to the candidate page and observers,
// and folds it into the shared session state.
func (st *streamSession) sync(snap proctor.Snapshot) {
	st.c.sendJSON(WSMessage{
		Type:    MsgProctorStatus,
		Payload: ProctorStatusPayload{SessionID: st.id, Snapshot: snap},
	})
	st.srv.broadcaster.PublishProctorStatus(st.id, snap)

	state, ok := st.srv.store.Get(st.id)
	if !ok {
		return
	}
	state.CameraReady = snap.CameraReady
	state.CameraError = snap.CameraError
	state.Monitoring = snap.CameraReady
	state.StatusLevel = snap.Level.String()
	state.WarningCount = st.baseWarnings + snap.Warnings
	state.TabSwitchCount = st.baseTabSwitch + snap.TabSwitches
	state.LookAwayCount = st.baseLookAways + snap.LookAways
	state.OutOfFrame = snap.OutOfFrame
	state.CurrentWarning = snap.CurrentWarning
	state.LastActivityAt = time.Now()
	state.UpdateReadiness()
	st.srv.store.UpdateAndNotify(state, func() {
		st.srv.broadcaster.QueueUpdate([]*session.State{state})
	})
}

func (st *streamSession) onStatus(ev proctor.StatusEvent) {
	st.c.sendJSON(WSMessage{
		Type:    MsgCameraStatus,
		Payload: CameraStatusPayload{SessionID: st.id, Status: ev.Status, Message: ev.Message},
	})
}

func (st *streamSession) onViolation(v proctor.Violation) {
	st.c.sendJSON(WSMessage{
		Type:    MsgViolation,
		Payload: ViolationPayload{SessionID: st.id, Violation: v},
	})
	st.srv.broadcaster.PublishViolation(st.id, v)
	if sink := st.srv.violationSink; sink != nil {
		sink(st.id, v)
	}
}

// nudge marks the monitoring state dirty without blocking. Called from
// controller callbacks, which may hold the controller lock.
func (st *streamSession) nudge() {
	select {
	case st.notify <- struct{}{}:
	default:
	}
}

func (st *streamSession) readPump(ctx context.Context, conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := st.src.HandleFrame(data); err != nil {
				st.srv.log.Debugw("frame rejected", "session", st.id, "error", err)
			}
		case websocket.TextMessage:
			st.handleText(ctx, data)
		}
	}
}

func (st *streamSession) handleText(ctx context.Context, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		st.c.sendJSON(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
		return
	}

	switch msg.Type {
	case MsgFrame:
		if err := st.src.HandleFrameBase64(msg.Data); err != nil {
			st.srv.log.Debugw("frame rejected", "session", st.id, "error", err)
		}
	case MsgFocus:
		st.src.HandleFocus(msg.Event)
	case MsgCamera:
		st.src.HandleCamera(msg.Status, msg.Message)
	case MsgRetry:
		// Retry re-runs acquisition, which blocks like the first attach.
		go st.retry(ctx)
	default:
		st.c.sendJSON(WSMessage{
			Type:    MsgError,
			Payload: ErrorPayload{Message: fmt.Sprintf("unknown message type %q", msg.Type)},
		})
	}
}

func (st *streamSession) retry(ctx context.Context) {
	st.ctrlMu.Lock()
	ctrl := st.ctrl
	st.ctrlMu.Unlock()
	if ctrl == nil {
		return
	}
	if err := ctrl.Retry(ctx); err != nil {
		st.srv.log.Warnw("camera retry failed", "session", st.id, "error", err)
	}
}

// teardown stops this connection's controller and flushes the final
// monitoring state. If a newer connection already replaced the
// controller, the session is left to it.
func (st *streamSession) teardown() {
	st.ctrlMu.Lock()
	ctrl := st.ctrl
	st.ctrlMu.Unlock()

	if ctrl != nil && st.srv.manager.DetachIf(st.id, ctrl) {
		st.sync(ctrl.Snapshot())
	}
	st.src.Release()
	st.c.close()
}
