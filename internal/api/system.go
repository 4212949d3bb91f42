package api

import (
	"net/http"

	"github.com/greenroomhq/greenroom/internal/health"
)

type healthResponse struct {
	health.Snapshot
	ActiveSessions int  `json:"active_sessions"`
	Observers      int  `json:"observers"`
	Database       bool `json:"database"`
	Queue          bool `json:"queue"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{
		Snapshot:       a.probe.Snapshot(),
		ActiveSessions: a.store.ActiveCount(),
		Observers:      a.broadcaster.ClientCount(),
		Database:       a.db != nil,
		Queue:          a.publisher != nil,
	})
}

// clientConfig is the subset of configuration a browser or TUI client
// needs. Credentials and infrastructure addresses never leave the server.
type clientConfig struct {
	InterviewQuestions int   `json:"interviewQuestions"`
	AptitudeQuestions  int   `json:"aptitudeQuestions"`
	SampleIntervalMS   int64 `json:"sampleIntervalMs"`
	WarningClearMS     int64 `json:"warningClearMs"`
	AnalysisEnabled    bool  `json:"analysisEnabled"`
	AuthRequired       bool  `json:"authRequired"`
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, clientConfig{
		InterviewQuestions: len(a.questionSet()),
		AptitudeQuestions:  len(a.aptBank),
		SampleIntervalMS:   a.cfg.Proctor.SampleInterval.Milliseconds(),
		WarningClearMS:     a.cfg.Proctor.WarningClear.Milliseconds(),
		AnalysisEnabled:    a.publisher != nil,
		AuthRequired:       a.cfg.Server.Token != "",
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if a.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "stats not available")
		return
	}
	respondJSON(w, http.StatusOK, a.tracker.Stats())
}
