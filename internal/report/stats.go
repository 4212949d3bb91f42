package report

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

const saveInterval = 30 * time.Second

// ViolationNote pairs a proctoring violation with the session it occurred
// in, for aggregate counting.
type ViolationNote struct {
	SessionID string
	Kind      proctor.ViolationKind
}

// Tracker observes session lifecycle events and violation notes and
// maintains the aggregate practice stats. Events arrive on channels and are
// processed by Run; dirty stats are persisted periodically and once more on
// shutdown.
type Tracker struct {
	persist    *StatsStore
	stats      *Stats
	events     chan session.Event
	violations chan ViolationNote
	mu         sync.Mutex
	dirty      bool
	counted    map[string]bool // session IDs already counted for TotalSessions
	violated   map[string]bool // session IDs with at least one violation
	log        *zap.SugaredLogger
}

// NewTracker creates a Tracker backed by the given store. It loads existing
// stats from disk. The caller must run Run in a goroutine for channel sends
// to drain.
func NewTracker(persist *StatsStore, log *zap.SugaredLogger) (*Tracker, error) {
	stats, err := persist.Load()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Tracker{
		persist:    persist,
		stats:      stats,
		events:     make(chan session.Event, 256),
		violations: make(chan ViolationNote, 256),
		counted:    make(map[string]bool),
		violated:   make(map[string]bool),
		log:        log,
	}, nil
}

// Events is the channel session lifecycle events are delivered on.
func (t *Tracker) Events() chan<- session.Event { return t.events }

// Violations is the channel proctoring violations are delivered on.
func (t *Tracker) Violations() chan<- ViolationNote { return t.violations }

// Run processes events and periodically saves dirty stats to disk.
// It blocks until ctx is cancelled, then performs a final save.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.save()
			return
		case ev := <-t.events:
			t.processEvent(ev)
		case n := <-t.violations:
			t.processViolation(n)
		case <-ticker.C:
			if t.dirty {
				t.save()
			}
		}
	}
}

// Stats returns a deep copy of the current aggregate stats.
func (t *Tracker) Stats() *Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.clone()
}

func (t *Tracker) processEvent(ev session.Event) {
	if ev.State == nil {
		return
	}
	t.mu.Lock()

	s := ev.State

	switch ev.Type {
	case session.EventNew:
		if t.counted[s.ID] {
			t.mu.Unlock()
			return
		}
		t.counted[s.ID] = true
		t.stats.TotalSessions++
		if s.Role != "" {
			t.stats.SessionsPerRole[s.Role]++
		}
		if ev.ActiveCount > t.stats.MaxConcurrentActive {
			t.stats.MaxConcurrentActive = ev.ActiveCount
		}
		day := s.StartedAt
		if day.IsZero() {
			day = time.Now()
		}
		t.stats.markPracticeDay(day)

	case session.EventUpdate:
		t.stats.BestScores.observe(s)
		if ev.ActiveCount > t.stats.MaxConcurrentActive {
			t.stats.MaxConcurrentActive = ev.ActiveCount
		}

	case session.EventTerminal:
		t.stats.BestScores.observe(s)
		switch s.Stage {
		case session.StageComplete:
			t.stats.CompletedSessions++
			if t.violated[s.ID] {
				t.stats.CleanStreak = 0
			} else {
				t.stats.CleanStreak++
			}
		case session.StageAbandoned:
			t.stats.AbandonedSessions++
			t.stats.CleanStreak = 0
		}
		if s.CompletedAt != nil && !s.StartedAt.IsZero() {
			dur := s.CompletedAt.Sub(s.StartedAt).Seconds()
			if dur > t.stats.MaxSessionDurationSec {
				t.stats.MaxSessionDurationSec = dur
			}
		}
		delete(t.counted, s.ID)
		delete(t.violated, s.ID)
	}

	t.dirty = true
	t.mu.Unlock()
}

func (t *Tracker) processViolation(n ViolationNote) {
	t.mu.Lock()
	t.stats.ViolationsByKind[n.Kind.String()]++
	t.stats.TotalViolations++
	t.violated[n.SessionID] = true
	t.dirty = true
	t.mu.Unlock()
}

// observe raises each best score that the snapshot beats. Peaks never
// decrease.
func (b *BestScores) observe(s *session.State) {
	if s.ATSScore > b.ATS {
		b.ATS = s.ATSScore
	}
	if s.InterviewScore > b.Interview {
		b.Interview = s.InterviewScore
	}
	if s.AptitudeScore > b.Aptitude {
		b.Aptitude = s.AptitudeScore
	}
	if s.Readiness > b.Readiness {
		b.Readiness = s.Readiness
	}
}

func (t *Tracker) save() {
	t.mu.Lock()
	stats := t.stats.clone()
	t.dirty = false
	t.mu.Unlock()

	if err := t.persist.Save(stats); err != nil {
		t.log.Warnw("failed to save practice stats", "error", err)
	}
}
