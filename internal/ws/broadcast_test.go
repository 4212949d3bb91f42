package ws

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/session"
)

func newTestBroadcaster(store *session.Store, filter *session.PrivacyFilter) *Broadcaster {
	if filter == nil {
		filter = &session.PrivacyFilter{}
	}
	return &Broadcaster{
		clients: make(map[*client]bool),
		store:   store,
		privacy: filter,
		log:     logging.Nop(),
	}
}

// assertSessionIDs checks that the result slice contains exactly the expected
// session IDs, in order.
func assertSessionIDs(t *testing.T, result []*session.State, expected ...string) {
	t.Helper()
	if len(result) != len(expected) {
		t.Fatalf("expected %d sessions, got %d", len(expected), len(result))
	}
	for i, id := range expected {
		if result[i].ID != id {
			t.Errorf("result[%d]: expected %s, got %s", i, id, result[i].ID)
		}
	}
}

func TestFilterSessions_NoFilter(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), nil)

	sessions := []*session.State{
		{ID: "s1", Candidate: "Ada Lovelace", Email: "ada@example.com"},
		{ID: "s2", Candidate: "Grace Hopper", Email: "grace@example.com"},
	}

	result := b.FilterSessions(sessions)
	assertSessionIDs(t, result, "s1", "s2")
	if result[0].Candidate != "Ada Lovelace" {
		t.Errorf("no-op filter changed candidate to %q", result[0].Candidate)
	}
	if result[0].Email != "ada@example.com" {
		t.Errorf("no-op filter changed email to %q", result[0].Email)
	}
}

func TestFilterSessions_Masking(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), &session.PrivacyFilter{
		MaskEmails: true,
		MaskNames:  true,
	})

	sessions := []*session.State{
		{
			ID:        "s1",
			Candidate: "Ada Lovelace",
			Email:     "ada@example.com",
		},
	}

	result := b.FilterSessions(sessions)
	if len(result) != 1 {
		t.Fatalf("expected 1 session, got %d", len(result))
	}

	s := result[0]
	if s.Candidate != "A.L." {
		t.Errorf("Candidate should be masked to initials, got %q", s.Candidate)
	}
	if s.Email != "a***@example.com" {
		t.Errorf("Email should keep first rune and domain, got %q", s.Email)
	}
	if s.ID != "s1" {
		t.Errorf("ID should be untouched without MaskSessionIDs, got %q", s.ID)
	}
}

func TestFilterSessions_MaskSessionIDs(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), &session.PrivacyFilter{
		MaskSessionIDs: true,
	})

	sessions := []*session.State{
		{ID: "greenroom:abc123"},
	}

	result := b.FilterSessions(sessions)
	if len(result) != 1 {
		t.Fatalf("expected 1 session, got %d", len(result))
	}
	if result[0].ID == "greenroom:abc123" {
		t.Error("session ID should have been masked")
	}
	if result[0].ID == "" {
		t.Error("masked session ID should not be empty")
	}
}

func TestFilterSessions_EmptySlice(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), &session.PrivacyFilter{
		MaskNames: true,
	})

	assertSessionIDs(t, b.FilterSessions(nil))
	assertSessionIDs(t, b.FilterSessions([]*session.State{}))
}

func TestFilterSessions_DoesNotMutateInput(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), &session.PrivacyFilter{
		MaskEmails: true,
		MaskNames:  true,
	})

	original := []*session.State{
		{ID: "s1", Candidate: "Ada Lovelace", Email: "ada@example.com"},
		{ID: "s2", Candidate: "Grace Hopper", Email: "grace@example.com"},
	}

	b.FilterSessions(original)

	if original[0].Candidate != "Ada Lovelace" {
		t.Error("input slice element was mutated")
	}
	if original[0].Email != "ada@example.com" {
		t.Error("input slice element email was mutated")
	}
	if len(original) != 2 {
		t.Error("input slice length was mutated")
	}
}

func TestSetPrivacyFilter(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), nil)

	sessions := []*session.State{
		{ID: "s1", Candidate: "Ada Lovelace", Email: "ada@example.com"},
	}

	// Default: no masking.
	if got := b.FilterSessions(sessions)[0].Candidate; got != "Ada Lovelace" {
		t.Errorf("default filter masked candidate to %q", got)
	}

	// Mask names only.
	b.SetPrivacyFilter(&session.PrivacyFilter{MaskNames: true})
	got := b.FilterSessions(sessions)[0]
	if got.Candidate != "A.L." {
		t.Errorf("expected masked candidate, got %q", got.Candidate)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("email should be untouched, got %q", got.Email)
	}

	// Replace with an email-only filter: names come back.
	b.SetPrivacyFilter(&session.PrivacyFilter{MaskEmails: true})
	got = b.FilterSessions(sessions)[0]
	if got.Candidate != "Ada Lovelace" {
		t.Errorf("candidate should be unmasked again, got %q", got.Candidate)
	}
	if got.Email == "ada@example.com" {
		t.Error("email should be masked")
	}

	// Nil resets to a no-op.
	b.SetPrivacyFilter(nil)
	if got := b.FilterSessions(sessions)[0].Email; got != "ada@example.com" {
		t.Errorf("nil filter should be a no-op, got email %q", got)
	}
}

func TestNewBroadcaster_DefaultPrivacyFilter(t *testing.T) {
	b := NewBroadcaster(logging.Nop(), session.NewStore(), 100*time.Millisecond, time.Hour, 0)
	defer b.Stop()

	if b.privacy == nil {
		t.Fatal("default privacy filter should not be nil")
	}
	if !b.privacy.IsNoop() {
		t.Error("default privacy filter should be a no-op")
	}

	sessions := []*session.State{
		{ID: "s1", Candidate: "Ada Lovelace", Email: "ada@example.com"},
	}
	result := b.FilterSessions(sessions)
	if len(result) != 1 {
		t.Fatalf("default filter should pass all, got %d", len(result))
	}
	if result[0].Email != "ada@example.com" {
		t.Error("default filter should not mask email")
	}
}

func TestBroadcaster_SequenceNumberWrapAround(t *testing.T) {
	// 2^64 messages would take centuries at realistic rates, but the wrap
	// behavior is well-defined and cheap to pin down.
	b := newTestBroadcaster(session.NewStore(), nil)

	maxUint64 := ^uint64(0)
	b.seq.Store(maxUint64 - 3)

	var seqs []uint64
	for i := 0; i < 5; i++ {
		seqs = append(seqs, b.seq.Add(1))
	}

	expected := []uint64{maxUint64 - 2, maxUint64 - 1, maxUint64, 0, 1}
	for i := range expected {
		if seqs[i] != expected[i] {
			t.Errorf("seq[%d]: expected %d, got %d", i, expected[i], seqs[i])
		}
	}
}

func TestBroadcaster_SequenceNumberIncrement(t *testing.T) {
	b := newTestBroadcaster(session.NewStore(), nil)

	if b.seq.Load() != 0 {
		t.Errorf("expected initial seq to be 0, got %d", b.seq.Load())
	}

	for i := 0; i < 5; i++ {
		expected := uint64(i + 1)
		if got := b.seq.Add(1); got != expected {
			t.Errorf("increment %d: expected %d, got %d", i, expected, got)
		}
	}
}

func TestDedupeByID(t *testing.T) {
	a1 := &session.State{ID: "a", WarningCount: 1}
	a2 := &session.State{ID: "a", WarningCount: 2}
	b1 := &session.State{ID: "b"}

	out := dedupeByID([]*session.State{a1, b1, a2})
	if len(out) != 2 {
		t.Fatalf("expected 2 states, got %d", len(out))
	}
	if out[0] != b1 {
		t.Errorf("expected b first, got %s", out[0].ID)
	}
	if out[1] != a2 {
		t.Errorf("expected the last queued state for a, got warnings %d", out[1].WarningCount)
	}

	// Short slices pass through untouched.
	single := []*session.State{a1}
	if got := dedupeByID(single); len(got) != 1 || got[0] != a1 {
		t.Error("single-element slice should pass through")
	}
}

// rxMessage mirrors WSMessage with a raw payload for test-side decoding.
type rxMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

func TestBroadcaster_DeliversSnapshotAndDeltas(t *testing.T) {
	store := session.NewStore()
	store.Update(&session.State{ID: "s1", Candidate: "Ada Lovelace"})

	b := NewBroadcaster(logging.Nop(), store, 10*time.Millisecond, time.Hour, 0)
	defer b.Stop()
	b.SetPrivacyFilter(&session.PrivacyFilter{MaskNames: true})

	srv, serverConn, clientConn := dialTestWSPair(t)
	defer srv.Close()

	if _, err := b.AddClient(serverConn); err != nil {
		t.Fatalf("AddClient: %v", err)
	}

	// First message is the filtered snapshot, stamped with the stream
	// position at join time (zero here, nothing broadcast yet).
	msg := readWSMessage(t, clientConn)
	if msg.Type != MsgSnapshot {
		t.Fatalf("expected snapshot first, got %q", msg.Type)
	}
	joinSeq := msg.Seq
	var snap SnapshotPayload
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Sessions) != 1 || snap.Sessions[0].Candidate != "A.L." {
		t.Fatalf("snapshot should be privacy filtered, got %+v", snap.Sessions)
	}

	// A queued update flushes as a delta after the throttle, numbered
	// contiguously from the join snapshot.
	b.QueueUpdate([]*session.State{{ID: "s1", Candidate: "Ada Lovelace", WarningCount: 2}})

	msg = readWSMessage(t, clientConn)
	if msg.Type != MsgDelta {
		t.Fatalf("expected delta, got %q", msg.Type)
	}
	if msg.Seq != joinSeq+1 {
		t.Errorf("delta should follow the snapshot without a gap, got seq %d after %d", msg.Seq, joinSeq)
	}
	var delta DeltaPayload
	if err := json.Unmarshal(msg.Payload, &delta); err != nil {
		t.Fatalf("decode delta: %v", err)
	}
	if len(delta.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(delta.Updates))
	}
	if delta.Updates[0].Candidate != "A.L." {
		t.Errorf("delta should be privacy filtered, got %q", delta.Updates[0].Candidate)
	}
	if delta.Updates[0].WarningCount != 2 {
		t.Errorf("delta lost the update, warnings = %d", delta.Updates[0].WarningCount)
	}
}

func TestBroadcaster_CoalescesUpdatesPerSession(t *testing.T) {
	store := session.NewStore()
	b := NewBroadcaster(logging.Nop(), store, 50*time.Millisecond, time.Hour, 0)
	defer b.Stop()

	srv, serverConn, clientConn := dialTestWSPair(t)
	defer srv.Close()

	if _, err := b.AddClient(serverConn); err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if msg := readWSMessage(t, clientConn); msg.Type != MsgSnapshot {
		t.Fatalf("expected initial snapshot, got %q", msg.Type)
	}

	// Three updates for one session inside a single throttle window.
	for i := 1; i <= 3; i++ {
		b.QueueUpdate([]*session.State{{ID: "s1", WarningCount: i}})
	}
	b.QueueRemoval([]string{"gone"})

	msg := readWSMessage(t, clientConn)
	if msg.Type != MsgDelta {
		t.Fatalf("expected delta, got %q", msg.Type)
	}
	var delta DeltaPayload
	if err := json.Unmarshal(msg.Payload, &delta); err != nil {
		t.Fatalf("decode delta: %v", err)
	}
	if len(delta.Updates) != 1 {
		t.Fatalf("burst should collapse to one update, got %d", len(delta.Updates))
	}
	if delta.Updates[0].WarningCount != 3 {
		t.Errorf("expected the last state to win, got warnings %d", delta.Updates[0].WarningCount)
	}
	if len(delta.Removed) != 1 || delta.Removed[0] != "gone" {
		t.Errorf("removal lost, got %v", delta.Removed)
	}
}

func TestBroadcaster_PublishViolationImmediate(t *testing.T) {
	b := NewBroadcaster(logging.Nop(), session.NewStore(), time.Hour, time.Hour, 0)
	defer b.Stop()

	srv, serverConn, clientConn := dialTestWSPair(t)
	defer srv.Close()

	if _, err := b.AddClient(serverConn); err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if msg := readWSMessage(t, clientConn); msg.Type != MsgSnapshot {
		t.Fatalf("expected initial snapshot, got %q", msg.Type)
	}

	// Throttle is an hour; violations must not wait for it.
	b.PublishViolation("s1", testViolation())

	msg := readWSMessage(t, clientConn)
	if msg.Type != MsgViolation {
		t.Fatalf("expected violation, got %q", msg.Type)
	}
	var vp ViolationPayload
	if err := json.Unmarshal(msg.Payload, &vp); err != nil {
		t.Fatalf("decode violation: %v", err)
	}
	if vp.SessionID != "s1" {
		t.Errorf("session = %q, want s1", vp.SessionID)
	}
	if !strings.Contains(vp.Violation.Message, "Tab switch") {
		t.Errorf("unexpected violation message %q", vp.Violation.Message)
	}
}
