package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewStatsStore_DefaultDir(t *testing.T) {
	s := NewStatsStore("")
	if s.dir == "" {
		t.Fatal("expected non-empty default dir")
	}
	if filepath.Base(s.dir) != appDirName {
		t.Errorf("expected dir to end with %q, got %q", appDirName, s.dir)
	}
}

func TestStatsStore_Path(t *testing.T) {
	s := NewStatsStore("/tmp/test-dir")
	want := "/tmp/test-dir/stats.json"
	if got := s.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestStatsStore_LoadMissing(t *testing.T) {
	s := NewStatsStore(t.TempDir())

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st.Version != statsVersion {
		t.Errorf("Version = %d, want %d", st.Version, statsVersion)
	}
	if st.SessionsPerRole == nil {
		t.Error("SessionsPerRole should be initialized")
	}
	if st.ViolationsByKind == nil {
		t.Error("ViolationsByKind should be initialized")
	}
}

func TestStatsStore_SaveAndLoad(t *testing.T) {
	s := NewStatsStore(t.TempDir())

	st := newStats()
	st.TotalSessions = 42
	st.CompletedSessions = 30
	st.AbandonedSessions = 5
	st.CleanStreak = 7
	st.SessionsPerRole["Platform Engineer"] = 25
	st.SessionsPerRole["Data Analyst"] = 17
	st.ViolationsByKind["tab-switch"] = 12
	st.TotalViolations = 12
	st.BestScores = BestScores{ATS: 88.5, Interview: 90, Aptitude: 75, Readiness: 82.1}
	st.PracticeDays = []string{"2026-08-20", "2026-08-21"}
	st.MaxConcurrentActive = 4
	st.MaxSessionDurationSec = 1800

	if err := s.Save(st); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.TotalSessions != 42 {
		t.Errorf("TotalSessions = %d, want 42", loaded.TotalSessions)
	}
	if loaded.CompletedSessions != 30 {
		t.Errorf("CompletedSessions = %d, want 30", loaded.CompletedSessions)
	}
	if loaded.AbandonedSessions != 5 {
		t.Errorf("AbandonedSessions = %d, want 5", loaded.AbandonedSessions)
	}
	if loaded.CleanStreak != 7 {
		t.Errorf("CleanStreak = %d, want 7", loaded.CleanStreak)
	}
	if loaded.SessionsPerRole["Platform Engineer"] != 25 {
		t.Errorf("SessionsPerRole = %v", loaded.SessionsPerRole)
	}
	if loaded.ViolationsByKind["tab-switch"] != 12 {
		t.Errorf("ViolationsByKind = %v", loaded.ViolationsByKind)
	}
	if loaded.BestScores != (BestScores{ATS: 88.5, Interview: 90, Aptitude: 75, Readiness: 82.1}) {
		t.Errorf("BestScores = %+v", loaded.BestScores)
	}
	if len(loaded.PracticeDays) != 2 || loaded.PracticeDays[0] != "2026-08-20" {
		t.Errorf("PracticeDays = %v", loaded.PracticeDays)
	}
	if loaded.MaxSessionDurationSec != 1800 {
		t.Errorf("MaxSessionDurationSec = %f, want 1800", loaded.MaxSessionDurationSec)
	}
	if loaded.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set after Save")
	}
}

func TestStatsStore_SaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s := NewStatsStore(dir)

	if err := s.Save(newStats()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("stats file should exist: %v", err)
	}
}

func TestStatsStore_LoadCorruptJSON(t *testing.T) {
	s := NewStatsStore(t.TempDir())

	if err := os.WriteFile(s.Path(), []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatal("Load() should return error for corrupt JSON")
	}
}

func TestStatsStore_LoadInitializesMaps(t *testing.T) {
	s := NewStatsStore(t.TempDir())

	data, _ := json.Marshal(Stats{Version: 1})
	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st.SessionsPerRole == nil {
		t.Error("SessionsPerRole should be initialized even from null JSON")
	}
	if st.ViolationsByKind == nil {
		t.Error("ViolationsByKind should be initialized even from null JSON")
	}
}

func TestStatsStore_AtomicWriteNoTempFileLeak(t *testing.T) {
	dir := t.TempDir()
	s := NewStatsStore(dir)

	for i := 0; i < 5; i++ {
		st := newStats()
		st.TotalSessions = i * 10
		if err := s.Save(st); err != nil {
			t.Fatalf("Save %d error: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	for _, e := range entries {
		if e.Name() != statsFileName {
			t.Errorf("unexpected file left in dir: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 file, got %d", len(entries))
	}
}

func TestDefaultStatsDir_XDGOverride(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	got := defaultStatsDir()
	want := "/custom/state/greenroom"
	if got != want {
		t.Errorf("defaultStatsDir() = %q, want %q", got, want)
	}
}

func TestStats_MarkPracticeDay(t *testing.T) {
	st := newStats()
	st.markPracticeDay(time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC))
	st.markPracticeDay(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))
	st.markPracticeDay(time.Date(2026, 8, 21, 23, 0, 0, 0, time.UTC)) // same day again

	want := []string{"2026-08-20", "2026-08-21"}
	if len(st.PracticeDays) != len(want) {
		t.Fatalf("PracticeDays = %v, want %v", st.PracticeDays, want)
	}
	for i := range want {
		if st.PracticeDays[i] != want[i] {
			t.Errorf("PracticeDays[%d] = %q, want %q", i, st.PracticeDays[i], want[i])
		}
	}
}

func TestStats_CloneIndependence(t *testing.T) {
	original := newStats()
	original.SessionsPerRole["SRE"] = 3
	original.ViolationsByKind["no-face"] = 2
	original.PracticeDays = []string{"2026-08-20"}

	cloned := original.clone()
	cloned.SessionsPerRole["SRE"] = 99
	cloned.ViolationsByKind["looking-away"] = 1
	cloned.PracticeDays[0] = "mutated"

	if original.SessionsPerRole["SRE"] != 3 {
		t.Error("SessionsPerRole map not properly cloned")
	}
	if _, ok := original.ViolationsByKind["looking-away"]; ok {
		t.Error("ViolationsByKind map not properly cloned")
	}
	if original.PracticeDays[0] != "2026-08-20" {
		t.Error("PracticeDays slice not properly cloned")
	}
}
