package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// statsVersion is bumped when the schema changes so Load can apply
	// migrations in the future.
	statsVersion = 1

	statsFileName = "stats.json"
	appDirName    = "greenroom"
)

// Stats is the persistent aggregate across every practice session on this
// machine. It is loaded from and saved to ~/.local/state/greenroom/stats.json
// (respecting XDG_STATE_HOME).
type Stats struct {
	Version int `json:"version"`

	// Session counters
	TotalSessions     int `json:"totalSessions"`
	CompletedSessions int `json:"completedSessions"`
	AbandonedSessions int `json:"abandonedSessions"`

	// CleanStreak counts consecutive completed sessions with no proctoring
	// violations. An abandoned session or a violation during a completed
	// one resets it.
	CleanStreak int `json:"cleanStreak"`

	// Per-dimension breakdowns
	SessionsPerRole  map[string]int `json:"sessionsPerRole"`
	ViolationsByKind map[string]int `json:"violationsByKind"`
	TotalViolations  int            `json:"totalViolations"`

	// All-time bests
	BestScores BestScores `json:"bestScores"`

	// PracticeDays lists distinct UTC days (2006-01-02) with at least one
	// session, sorted ascending.
	PracticeDays []string `json:"practiceDays"`

	// Peak metrics
	MaxConcurrentActive   int     `json:"maxConcurrentActive"`
	MaxSessionDurationSec float64 `json:"maxSessionDurationSec"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// BestScores holds the all-time high for each scored stage.
type BestScores struct {
	ATS       float64 `json:"ats"`
	Interview float64 `json:"interview"`
	Aptitude  float64 `json:"aptitude"`
	Readiness float64 `json:"readiness"`
}

// markPracticeDay records the UTC day of t, keeping the list sorted and
// free of duplicates.
func (st *Stats) markPracticeDay(t time.Time) {
	day := t.UTC().Format("2006-01-02")
	for _, d := range st.PracticeDays {
		if d == day {
			return
		}
	}
	st.PracticeDays = append(st.PracticeDays, day)
	sort.Strings(st.PracticeDays)
}

// StatsStore handles loading and saving Stats to disk.
type StatsStore struct {
	dir string // directory containing stats.json
}

// NewStatsStore creates a StatsStore that reads/writes stats in the given
// directory. The directory is created (with parents) on the first Save if
// it does not exist. Pass an empty string to use the default XDG state path.
func NewStatsStore(dir string) *StatsStore {
	if dir == "" {
		dir = defaultStatsDir()
	}
	return &StatsStore{dir: dir}
}

// Path returns the full path to the stats file.
func (s *StatsStore) Path() string {
	return filepath.Join(s.dir, statsFileName)
}

// Load reads stats from disk. If the file does not exist, a zero-value
// Stats with initialized maps and the current version is returned.
func (s *StatsStore) Load() (*Stats, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return newStats(), nil
		}
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing stats: %w", err)
	}
	st.initMaps()

	return &st, nil
}

// Save writes stats to disk using an atomic temp-file-then-rename pattern.
// The directory is created if it does not already exist.
func (s *StatsStore) Save(st *Stats) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating stats dir: %w", err)
	}

	st.Version = statsVersion
	st.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".stats-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming stats file: %w", err)
	}
	committed = true

	return nil
}

// newStats returns a Stats with initialized maps and the current version.
func newStats() *Stats {
	return &Stats{
		Version:          statsVersion,
		SessionsPerRole:  make(map[string]int),
		ViolationsByKind: make(map[string]int),
	}
}

// initMaps ensures all map fields are non-nil after deserialization.
func (st *Stats) initMaps() {
	if st.SessionsPerRole == nil {
		st.SessionsPerRole = make(map[string]int)
	}
	if st.ViolationsByKind == nil {
		st.ViolationsByKind = make(map[string]int)
	}
}

// clone returns a deep copy of Stats with maps and slices duplicated.
func (st *Stats) clone() *Stats {
	cp := *st
	cp.SessionsPerRole = make(map[string]int, len(st.SessionsPerRole))
	for k, v := range st.SessionsPerRole {
		cp.SessionsPerRole[k] = v
	}
	cp.ViolationsByKind = make(map[string]int, len(st.ViolationsByKind))
	for k, v := range st.ViolationsByKind {
		cp.ViolationsByKind[k] = v
	}
	if len(st.PracticeDays) > 0 {
		cp.PracticeDays = make([]string, len(st.PracticeDays))
		copy(cp.PracticeDays, st.PracticeDays)
	}
	return &cp
}

// defaultStatsDir returns ~/.local/state/greenroom, respecting
// XDG_STATE_HOME if set.
func defaultStatsDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
