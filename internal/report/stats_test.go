package report

import (
	"context"
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

// startTracker creates a Tracker backed by a temp directory, starts its Run
// loop, and returns it with both delivery channels. The Run goroutine and
// context are cleaned up when the test finishes.
func startTracker(t *testing.T) (*Tracker, chan<- session.Event, chan<- ViolationNote) {
	t.Helper()
	store := NewStatsStore(t.TempDir())
	tracker, err := NewTracker(store, nil)
	if err != nil {
		t.Fatalf("NewTracker error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return tracker, tracker.Events(), tracker.Violations()
}

func TestTracker_LoadsExistingStats(t *testing.T) {
	store := NewStatsStore(t.TempDir())

	initial := newStats()
	initial.TotalSessions = 100
	initial.CompletedSessions = 60
	if err := store.Save(initial); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	tracker, err := NewTracker(store, nil)
	if err != nil {
		t.Fatalf("NewTracker error: %v", err)
	}

	stats := tracker.Stats()
	if stats.TotalSessions != 100 {
		t.Errorf("TotalSessions = %d, want 100", stats.TotalSessions)
	}
	if stats.CompletedSessions != 60 {
		t.Errorf("CompletedSessions = %d, want 60", stats.CompletedSessions)
	}
}

func TestTracker_EventNew(t *testing.T) {
	tracker, events, _ := startTracker(t)

	started := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		events <- session.Event{
			Type:        session.EventNew,
			State:       &session.State{ID: "s1", Role: "Platform Engineer", StartedAt: started},
			ActiveCount: 1,
		}
	}
	events <- session.Event{
		Type:        session.EventNew,
		State:       &session.State{ID: "s2", Role: "Data Analyst", StartedAt: started.Add(24 * time.Hour)},
		ActiveCount: 2,
	}

	time.Sleep(100 * time.Millisecond)

	stats := tracker.Stats()
	if stats.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2 (duplicates ignored)", stats.TotalSessions)
	}
	if stats.SessionsPerRole["Platform Engineer"] != 1 {
		t.Errorf("SessionsPerRole = %v", stats.SessionsPerRole)
	}
	if stats.MaxConcurrentActive != 2 {
		t.Errorf("MaxConcurrentActive = %d, want 2", stats.MaxConcurrentActive)
	}
	if len(stats.PracticeDays) != 2 || stats.PracticeDays[0] != "2026-08-21" {
		t.Errorf("PracticeDays = %v", stats.PracticeDays)
	}
}

func TestTracker_BestScoresOnlyIncrease(t *testing.T) {
	tracker, events, _ := startTracker(t)

	events <- session.Event{
		Type:        session.EventUpdate,
		State:       &session.State{ID: "s1", ATSScore: 80, InterviewScore: 70, Readiness: 75},
		ActiveCount: 1,
	}
	time.Sleep(50 * time.Millisecond)

	events <- session.Event{
		Type:        session.EventUpdate,
		State:       &session.State{ID: "s2", ATSScore: 60, InterviewScore: 90, Readiness: 72},
		ActiveCount: 1,
	}
	time.Sleep(50 * time.Millisecond)

	best := tracker.Stats().BestScores
	if best.ATS != 80 {
		t.Errorf("BestScores.ATS = %f, want 80", best.ATS)
	}
	if best.Interview != 90 {
		t.Errorf("BestScores.Interview = %f, want 90", best.Interview)
	}
	if best.Readiness != 75 {
		t.Errorf("BestScores.Readiness = %f, want 75", best.Readiness)
	}
}

func TestTracker_ViolationCounts(t *testing.T) {
	tracker, _, violations := startTracker(t)

	violations <- ViolationNote{SessionID: "s1", Kind: proctor.KindTabSwitch}
	violations <- ViolationNote{SessionID: "s1", Kind: proctor.KindTabSwitch}
	violations <- ViolationNote{SessionID: "s2", Kind: proctor.KindOutOfFrame}

	time.Sleep(100 * time.Millisecond)

	stats := tracker.Stats()
	if stats.TotalViolations != 3 {
		t.Errorf("TotalViolations = %d, want 3", stats.TotalViolations)
	}
	if stats.ViolationsByKind["tab-switch"] != 2 {
		t.Errorf("ViolationsByKind[tab-switch] = %d, want 2", stats.ViolationsByKind["tab-switch"])
	}
	if stats.ViolationsByKind["out-of-frame"] != 1 {
		t.Errorf("ViolationsByKind[out-of-frame] = %d, want 1", stats.ViolationsByKind["out-of-frame"])
	}
}

func TestTracker_CleanStreak(t *testing.T) {
	tracker, events, violations := startTracker(t)
	completedAt := time.Now()

	finish := func(id string, stage session.Stage) {
		events <- session.Event{
			Type: session.EventTerminal,
			State: &session.State{
				ID:          id,
				Stage:       stage,
				StartedAt:   completedAt.Add(-10 * time.Minute),
				CompletedAt: &completedAt,
			},
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Two clean completions build a streak.
	finish("s1", session.StageComplete)
	finish("s2", session.StageComplete)
	if got := tracker.Stats().CleanStreak; got != 2 {
		t.Fatalf("CleanStreak = %d, want 2", got)
	}

	// A completion with a violation on record resets it.
	violations <- ViolationNote{SessionID: "s3", Kind: proctor.KindNoFace}
	time.Sleep(50 * time.Millisecond)
	finish("s3", session.StageComplete)

	stats := tracker.Stats()
	if stats.CleanStreak != 0 {
		t.Errorf("CleanStreak after violated completion = %d, want 0", stats.CleanStreak)
	}
	if stats.CompletedSessions != 3 {
		t.Errorf("CompletedSessions = %d, want 3", stats.CompletedSessions)
	}

	// Build one back up, then abandon.
	finish("s4", session.StageComplete)
	if got := tracker.Stats().CleanStreak; got != 1 {
		t.Fatalf("CleanStreak = %d, want 1", got)
	}
	finish("s5", session.StageAbandoned)

	stats = tracker.Stats()
	if stats.CleanStreak != 0 {
		t.Errorf("CleanStreak after abandon = %d, want 0", stats.CleanStreak)
	}
	if stats.AbandonedSessions != 1 {
		t.Errorf("AbandonedSessions = %d, want 1", stats.AbandonedSessions)
	}
	if stats.MaxSessionDurationSec != 600 {
		t.Errorf("MaxSessionDurationSec = %f, want 600", stats.MaxSessionDurationSec)
	}
}

func TestTracker_StatsReturnsCopy(t *testing.T) {
	tracker, events, _ := startTracker(t)

	events <- session.Event{
		Type:        session.EventNew,
		State:       &session.State{ID: "s1", Role: "SRE"},
		ActiveCount: 1,
	}
	time.Sleep(50 * time.Millisecond)

	stats1 := tracker.Stats()
	stats1.TotalSessions = 999
	stats1.SessionsPerRole["modified"] = 123

	stats2 := tracker.Stats()
	if stats2.TotalSessions != 1 {
		t.Errorf("Stats should return a copy; TotalSessions = %d, want 1", stats2.TotalSessions)
	}
	if _, ok := stats2.SessionsPerRole["modified"]; ok {
		t.Error("Stats should return a copy; modifications should not leak back")
	}
}

func TestTracker_SavesOnContextCancel(t *testing.T) {
	store := NewStatsStore(t.TempDir())
	tracker, err := NewTracker(store, nil)
	if err != nil {
		t.Fatalf("NewTracker error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(done)
	}()

	tracker.Events() <- session.Event{
		Type:        session.EventNew,
		State:       &session.State{ID: "s1"},
		ActiveCount: 1,
	}
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.TotalSessions != 1 {
		t.Errorf("persisted TotalSessions = %d, want 1", loaded.TotalSessions)
	}
}
