package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/views/statsview"
)

func sized(m Model) Model {
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return mm.(Model)
}

func connected(t *testing.T) Model {
	t.Helper()
	m := sized(New(nil, nil, "ws://127.0.0.1:8080/ws/observe"))
	mm, _ := m.Update(client.ConnectedMsg{})
	return mm.(Model)
}

func TestDisconnectOverlay(t *testing.T) {
	m := sized(New(nil, nil, "ws://127.0.0.1:8080/ws/observe"))
	out := m.View()
	if !strings.Contains(out, "DISCONNECTED") {
		t.Fatalf("View() should show the disconnect overlay:\n%s", out)
	}
	if !strings.Contains(out, "Reconnecting") {
		t.Fatalf("View() should mention reconnecting:\n%s", out)
	}
}

func TestSnapshotAndDelta(t *testing.T) {
	m := connected(t)
	now := time.Now()

	mm, _ := m.Update(client.SnapshotMsg{Sessions: []*client.Session{
		{ID: "s1", Candidate: "Asha", Stage: client.StageInterview, Monitoring: true, StartedAt: now, LastActivityAt: now},
		{ID: "s2", Candidate: "Bo", Stage: client.StageComplete, StartedAt: now.Add(-time.Hour), LastActivityAt: now},
	}})
	m = mm.(Model)

	if len(m.sessions) != 2 {
		t.Fatalf("sessions after snapshot = %d, want 2", len(m.sessions))
	}
	if m.status.Live != 1 || m.status.Done != 1 {
		t.Fatalf("status counts live=%d done=%d, want 1 and 1", m.status.Live, m.status.Done)
	}
	out := m.View()
	for _, want := range []string{"Asha", "Bo"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View() missing %q:\n%s", want, out)
		}
	}

	mm, _ = m.Update(client.DeltaMsg{
		Updates: []*client.Session{
			{ID: "s3", Candidate: "Cal", Stage: client.StageCreated, StartedAt: now, LastActivityAt: now},
		},
		Removed: []string{"s2"},
	})
	m = mm.(Model)

	if len(m.sessions) != 2 {
		t.Fatalf("sessions after delta = %d, want 2", len(m.sessions))
	}
	if _, ok := m.sessions["s2"]; ok {
		t.Fatal("removed session should be gone")
	}
	if !strings.Contains(m.View(), "Cal") {
		t.Fatal("View() should show the session added by the delta")
	}
}

func TestViolationLandsInFeed(t *testing.T) {
	m := connected(t)
	now := time.Now()
	mm, _ := m.Update(client.SnapshotMsg{Sessions: []*client.Session{
		{ID: "s1", Candidate: "Asha", Stage: client.StageInterview, Monitoring: true, StartedAt: now, LastActivityAt: now},
	}})
	m = mm.(Model)

	mm, _ = m.Update(client.ViolationMsg{
		SessionID: "s1",
		Violation: client.Violation{Kind: "tab-switch", Timestamp: now, Message: "switched away from the interview tab"},
	})
	m = mm.(Model)

	if m.feed.Len() != 1 {
		t.Fatalf("feed length = %d, want 1", m.feed.Len())
	}
	out := m.View()
	if !strings.Contains(out, "tab-switch") {
		t.Fatalf("View() should show the violation kind:\n%s", out)
	}
}

func TestSeqGapUnwrapsInner(t *testing.T) {
	m := connected(t)
	now := time.Now()

	mm, _ := m.Update(client.SeqGapMsg{
		Expected: 2,
		Got:      5,
		Inner: client.SnapshotMsg{Sessions: []*client.Session{
			{ID: "s1", Candidate: "Asha", Stage: client.StageInterview, Monitoring: true, StartedAt: now, LastActivityAt: now},
		}},
	})
	m = mm.(Model)

	if len(m.sessions) != 1 {
		t.Fatal("inner message should still be applied after a sequence gap")
	}
	if m.log.Len() == 0 {
		t.Fatal("sequence gap should be logged")
	}
}

func TestDetailOverlay(t *testing.T) {
	m := connected(t)
	now := time.Now()
	mm, _ := m.Update(client.SnapshotMsg{Sessions: []*client.Session{
		{ID: "s1", Candidate: "Asha", Role: "Backend Engineer", Stage: client.StageInterview,
			Monitoring: true, CameraReady: true, WarningCount: 2, StartedAt: now, LastActivityAt: now},
	}})
	m = mm.(Model)

	mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mm.(Model)
	if !m.detail.Open {
		t.Fatal("enter should open the detail panel")
	}
	out := m.View()
	for _, want := range []string{"Asha", "warnings", "camera"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail View() missing %q:\n%s", want, out)
		}
	}

	mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = mm.(Model)
	if m.detail.Open {
		t.Fatal("esc should close the detail panel")
	}
}

func TestProctorStatusUpdatesDetail(t *testing.T) {
	m := connected(t)
	now := time.Now()
	mm, _ := m.Update(client.SnapshotMsg{Sessions: []*client.Session{
		{ID: "s1", Candidate: "Asha", Stage: client.StageInterview, Monitoring: true, CameraReady: true, StartedAt: now, LastActivityAt: now},
	}})
	m = mm.(Model)
	mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mm.(Model)

	mm, _ = m.Update(client.ProctorStatusMsg{
		SessionID: "s1",
		Snapshot: client.ProctorSnapshot{
			Phase: "monitoring", Face: "absent", Level: "warning",
			Label: "face not visible", Warnings: 3, CameraReady: true,
		},
	})
	m = mm.(Model)

	if !strings.Contains(m.View(), "absent") {
		t.Fatal("detail should show the live face state")
	}
}

func TestLogPaneToggle(t *testing.T) {
	m := connected(t)
	mm, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = mm.(Model)
	if !m.showLog {
		t.Fatal("d should switch the bottom pane to the client log")
	}
	if !strings.Contains(m.View(), "CLIENT LOG") {
		t.Fatal("View() should title the log pane")
	}
}

func TestStatsOverlayRenders(t *testing.T) {
	m := connected(t)
	m.stats.OpenAndLoad()
	mm, _ := m.Update(statsview.LoadedMsg{Stats: &client.Stats{
		TotalSessions:     12,
		CompletedSessions: 7,
		CleanStreak:       3,
		TotalViolations:   9,
		ViolationsByKind:  map[string]int{"tab-switch": 6, "no-face": 3},
		BestScores:        client.BestScores{ATS: 88, Interview: 74, Aptitude: 90, Readiness: 81},
		LastUpdated:       time.Now(),
	}})
	m = mm.(Model)

	out := m.View()
	for _, want := range []string{"PRACTICE STATS", "12 total", "tab-switch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats View() missing %q:\n%s", want, out)
		}
	}
}

func TestServerErrorShownInStatusBar(t *testing.T) {
	m := connected(t)
	mm, _ := m.Update(client.ServerErrorMsg{Message: "observer limit reached"})
	m = mm.(Model)
	if !strings.Contains(m.View(), "observer limit reached") {
		t.Fatal("server errors should surface in the status bar")
	}
}
