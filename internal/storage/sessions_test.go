package storage

import (
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

func TestRowFromState_RoundTrip(t *testing.T) {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	completed := started.Add(45 * time.Minute)
	st := &session.State{
		ID:             "cand-42",
		Candidate:      "Grace Hopper",
		Email:          "grace@example.com",
		Role:           "Staff Engineer",
		Stage:          session.StageReport,
		ResumeKey:      "resumes/cand-42/resume.pdf",
		ATSScore:       71.5,
		InterviewScore: 6.4,
		AptitudeScore:  80,
		Readiness:      68.2,
		WarningCount:   3,
		TabSwitchCount: 1,
		LookAwayCount:  4,
		StartedAt:      started,
		LastActivityAt: completed,
		CompletedAt:    &completed,
	}

	got := RowFromState(st).State()

	if got.ID != st.ID || got.Candidate != st.Candidate || got.Email != st.Email {
		t.Errorf("identity fields changed: got %+v", got)
	}
	if got.Stage != session.StageReport {
		t.Errorf("Stage = %v, want %v", got.Stage, session.StageReport)
	}
	if got.ATSScore != st.ATSScore || got.InterviewScore != st.InterviewScore ||
		got.AptitudeScore != st.AptitudeScore || got.Readiness != st.Readiness {
		t.Errorf("scores changed: got %+v", got)
	}
	if got.WarningCount != 3 || got.TabSwitchCount != 1 || got.LookAwayCount != 4 {
		t.Errorf("counters changed: got %d/%d/%d",
			got.WarningCount, got.TabSwitchCount, got.LookAwayCount)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, completed)
	}
}

func TestRowFromState_LiveFieldsNotPersisted(t *testing.T) {
	st := &session.State{
		ID:             "cand-1",
		Candidate:      "Ada",
		Stage:          session.StageInterview,
		CameraReady:    true,
		Monitoring:     true,
		StatusLevel:    "warning",
		CurrentWarning: "No face detected",
		OutOfFrame:     true,
		Seat:           2,
		StartedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}

	got := RowFromState(st).State()

	if got.CameraReady || got.Monitoring || got.OutOfFrame {
		t.Error("camera/monitoring flags should not survive persistence")
	}
	if got.StatusLevel != "" || got.CurrentWarning != "" || got.Seat != 0 {
		t.Errorf("transient fields should be zero, got level=%q warning=%q seat=%d",
			got.StatusLevel, got.CurrentWarning, got.Seat)
	}
}

func TestSessionRow_UnknownStageFallsBack(t *testing.T) {
	row := &SessionRow{ID: "cand-1", Stage: "galaxy-brain"}
	if got := row.State().Stage; got != session.StageCreated {
		t.Errorf("Stage = %v, want StageCreated", got)
	}
}

func TestViolationRow_RoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	row := &ViolationRow{
		SessionID:  "cand-1",
		Kind:       "out-of-frame",
		Message:    "Moved out of frame",
		OccurredAt: at,
	}

	v, ok := row.Violation()
	if !ok {
		t.Fatal("known kind rejected")
	}
	if v.Kind != proctor.KindOutOfFrame || v.Message != "Moved out of frame" || !v.Timestamp.Equal(at) {
		t.Errorf("Violation() = %+v", v)
	}
}

func TestViolationRow_UnknownKind(t *testing.T) {
	row := &ViolationRow{Kind: "telepathy"}
	if _, ok := row.Violation(); ok {
		t.Error("unknown kind should be rejected")
	}
}
