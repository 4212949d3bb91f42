package ws

import (
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

// streamRecorder collects server-sent messages by type.
type streamRecorder struct {
	mu         sync.Mutex
	violations []ViolationPayload
	statuses   []CameraStatusPayload
	snapshots  []ProctorStatusPayload
}

func (r *streamRecorder) record(msg rxMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch msg.Type {
	case MsgViolation:
		var p ViolationPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			r.violations = append(r.violations, p)
		}
	case MsgCameraStatus:
		var p CameraStatusPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			r.statuses = append(r.statuses, p)
		}
	case MsgProctorStatus:
		var p ProctorStatusPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			r.snapshots = append(r.snapshots, p)
		}
	}
}

func (r *streamRecorder) violationKinds() []proctor.ViolationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]proctor.ViolationKind, len(r.violations))
	for i, v := range r.violations {
		kinds[i] = v.Violation.Kind
	}
	return kinds
}

func (r *streamRecorder) lastStatus() (CameraStatusPayload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return CameraStatusPayload{}, false
	}
	return r.statuses[len(r.statuses)-1], true
}

func (r *streamRecorder) snapshotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// streamFixture stands up the full candidate stream stack: store, manager
// on a mock clock, websocket server, and a dialed connection for session
// cand-1.
type streamFixture struct {
	t       *testing.T
	srv     *httptest.Server
	server  *Server
	store   *session.Store
	manager *proctor.Manager
	mock    *clock.Mock
	rec     *streamRecorder

	connMu sync.Mutex
	conn   *websocket.Conn

	sinkMu sync.Mutex
	sink   []proctor.Violation
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()

	f := &streamFixture{
		t:    t,
		rec:  &streamRecorder{},
		mock: clock.NewMock(),
	}

	s, store, manager := newTestServer(t, nil)
	manager.SetClock(f.mock)
	s.SetViolationSink(func(_ string, v proctor.Violation) {
		f.sinkMu.Lock()
		f.sink = append(f.sink, v)
		f.sinkMu.Unlock()
	})

	now := time.Now()
	store.Update(&session.State{
		ID:             "cand-1",
		Candidate:      "Ada Lovelace",
		Stage:          session.StageInterview,
		StartedAt:      now,
		LastActivityAt: now,
	})

	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.server, f.store, f.manager = s, store, manager
	f.dial()
	return f
}

func (f *streamFixture) dial() {
	f.t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/session/cand-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		f.t.Fatalf("dial: %v", err)
	}
	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	f.t.Cleanup(func() { conn.Close() })
	go f.readLoop(conn)
}

func (f *streamFixture) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg rxMessage
		if json.Unmarshal(data, &msg) == nil {
			f.rec.record(msg)
		}
	}
}

func (f *streamFixture) send(msg ClientMessage) {
	f.t.Helper()
	f.connMu.Lock()
	conn := f.conn
	f.connMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		f.t.Fatalf("write %s: %v", msg.Type, err)
	}
}

func (f *streamFixture) sendFrame(data []byte) {
	f.t.Helper()
	f.connMu.Lock()
	conn := f.conn
	f.connMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		f.t.Fatalf("write frame: %v", err)
	}
}

func (f *streamFixture) closeConn() {
	f.connMu.Lock()
	conn := f.conn
	f.connMu.Unlock()
	conn.Close()
}

func (f *streamFixture) state() *session.State {
	f.t.Helper()
	st, ok := f.store.Get("cand-1")
	if !ok {
		f.t.Fatal("session vanished from store")
	}
	return st
}

func (f *streamFixture) snapshot() (proctor.Snapshot, bool) {
	ctrl, ok := f.manager.Get("cand-1")
	if !ok {
		return proctor.Snapshot{}, false
	}
	return ctrl.Snapshot(), true
}

func (f *streamFixture) sinkViolations() []proctor.Violation {
	f.sinkMu.Lock()
	defer f.sinkMu.Unlock()
	out := make([]proctor.Violation, len(f.sink))
	copy(out, f.sink)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// advanceUntil steps the mock clock one sample interval at a time until
// the condition holds. Samples that race frame delivery are skipped by
// the controller and simply retried on the next step.
func (f *streamFixture) advanceUntil(what string, cond func() bool) {
	f.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		f.mock.Add(2 * time.Second)
		time.Sleep(10 * time.Millisecond)
	}
	f.t.Fatalf("timed out advancing until %s", what)
}

func TestSessionStream_MonitoringLifecycle(t *testing.T) {
	f := newStreamFixture(t)

	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})

	waitFor(t, "monitoring to start", func() bool {
		return f.state().Monitoring
	})
	if got := f.manager.Count(); got != 1 {
		t.Errorf("manager tracks %d controllers, want 1", got)
	}
	waitFor(t, "camera status push", func() bool {
		st, ok := f.rec.lastStatus()
		return ok && st.Status == proctor.CameraActive
	})
	waitFor(t, "a proctor snapshot push", func() bool {
		return f.rec.snapshotCount() > 0
	})

	st := f.state()
	if !st.CameraReady {
		t.Error("store should show camera ready")
	}
	if st.StatusLevel != "good" {
		t.Errorf("status level = %q, want good", st.StatusLevel)
	}

	f.closeConn()

	waitFor(t, "controller detach", func() bool {
		return f.manager.Count() == 0
	})
	waitFor(t, "final state sync", func() bool {
		st := f.state()
		return !st.Monitoring && !st.CameraReady
	})
}

func TestSessionStream_FrameViolationFlow(t *testing.T) {
	f := newStreamFixture(t)

	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})
	waitFor(t, "monitoring to start", func() bool {
		return f.state().Monitoring
	})

	// Gray frames carry no skin tones: the classifier reads them as an
	// absent face, and the second consecutive one records a violation.
	f.sendFrame(grayJPEG(t))

	f.advanceUntil("face absence", func() bool {
		snap, ok := f.snapshot()
		return ok && snap.LookAways >= 1
	})
	f.advanceUntil("out-of-frame violation", func() bool {
		snap, ok := f.snapshot()
		return ok && snap.Warnings >= 1
	})

	waitFor(t, "violation on the wire", func() bool {
		return len(f.rec.violationKinds()) >= 1
	})
	if kinds := f.rec.violationKinds(); kinds[0] != proctor.KindOutOfFrame {
		t.Errorf("first violation = %v, want KindOutOfFrame", kinds[0])
	}
	waitFor(t, "violation in the sink", func() bool {
		return len(f.sinkViolations()) >= 1
	})
	if sunk := f.sinkViolations(); sunk[0].Kind != proctor.KindOutOfFrame {
		t.Errorf("sink violation = %v, want KindOutOfFrame", sunk[0].Kind)
	}
	waitFor(t, "warning count in store", func() bool {
		return f.state().WarningCount >= 1
	})

	// Skin-tone frames bring the face back.
	f.sendFrame(encodeJPEG(t, 64, 48, color.RGBA{R: 200, G: 120, B: 90, A: 255}))
	f.advanceUntil("face recovery", func() bool {
		snap, ok := f.snapshot()
		return ok && !snap.OutOfFrame
	})

	waitFor(t, "store to clear out-of-frame", func() bool {
		return !f.state().OutOfFrame
	})
	if st := f.state(); st.WarningCount < 1 || st.WarningCount > 2 {
		t.Errorf("warning count = %d, want 1 or 2 (entry plus optional long absence)", st.WarningCount)
	}
	if !f.state().Monitoring {
		t.Error("monitoring should survive the whole episode")
	}
}

func TestSessionStream_FocusViolations(t *testing.T) {
	f := newStreamFixture(t)

	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})
	waitFor(t, "monitoring to start", func() bool {
		return f.state().Monitoring
	})

	f.send(ClientMessage{Type: MsgFocus, Event: FocusEventHidden})
	waitFor(t, "tab switch recorded", func() bool {
		return f.state().TabSwitchCount == 1
	})

	f.send(ClientMessage{Type: MsgFocus, Event: FocusEventBlur})
	waitFor(t, "window blur recorded", func() bool {
		return f.state().WarningCount == 2
	})

	waitFor(t, "violations on the wire", func() bool {
		return len(f.rec.violationKinds()) == 2
	})
	kinds := f.rec.violationKinds()
	if kinds[0] != proctor.KindTabSwitch || kinds[1] != proctor.KindWindowBlur {
		t.Errorf("violation kinds = %v, want [tab switch, window blur]", kinds)
	}

	if got := f.state().TabSwitchCount; got != 1 {
		t.Errorf("tab switches = %d, want 1 (blur is not a tab switch)", got)
	}
}

func TestSessionStream_CameraDeniedAndRetry(t *testing.T) {
	f := newStreamFixture(t)

	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusDenied, Message: "permission denied"})

	waitFor(t, "camera error status", func() bool {
		st, ok := f.rec.lastStatus()
		return ok && st.Status == proctor.CameraFailed
	})
	st, _ := f.rec.lastStatus()
	if st.Message != "permission denied" {
		t.Errorf("error message = %q, want the page's reason", st.Message)
	}

	waitFor(t, "error in store", func() bool {
		return f.state().CameraError == "permission denied"
	})
	if f.state().CameraReady {
		t.Error("camera must not be ready after denial")
	}
	if got := f.manager.Count(); got != 1 {
		t.Errorf("failed controller should stay tracked, count = %d", got)
	}

	// The candidate grants permission and retries.
	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})
	f.send(ClientMessage{Type: MsgRetry})

	waitFor(t, "monitoring after retry", func() bool {
		return f.state().Monitoring
	})
	if f.state().CameraError != "" {
		t.Errorf("camera error should clear, got %q", f.state().CameraError)
	}
}

func TestSessionStream_ReconnectKeepsCounters(t *testing.T) {
	f := newStreamFixture(t)

	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})
	waitFor(t, "monitoring to start", func() bool {
		return f.state().Monitoring
	})

	f.send(ClientMessage{Type: MsgFocus, Event: FocusEventHidden})
	f.send(ClientMessage{Type: MsgFocus, Event: FocusEventHidden})
	waitFor(t, "two warnings", func() bool {
		return f.state().WarningCount == 2
	})

	f.closeConn()
	waitFor(t, "detach", func() bool {
		return f.manager.Count() == 0
	})
	waitFor(t, "final sync of the first connection", func() bool {
		return !f.state().Monitoring
	})

	// A fresh connection starts a fresh controller, but the session's
	// history must accumulate rather than reset.
	f.dial()
	f.send(ClientMessage{Type: MsgCamera, Status: CameraStatusReady})
	waitFor(t, "monitoring after reconnect", func() bool {
		return f.state().Monitoring
	})

	f.send(ClientMessage{Type: MsgFocus, Event: FocusEventHidden})
	waitFor(t, "cumulative warnings", func() bool {
		return f.state().WarningCount == 3
	})
	if got := f.state().TabSwitchCount; got != 3 {
		t.Errorf("tab switches = %d, want 3 across connections", got)
	}
}

func TestSessionStream_UnknownSessionRejected(t *testing.T) {
	f := newStreamFixture(t)

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/session/ghost"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial to unknown session should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 handshake response, got %+v", resp)
	}
}
