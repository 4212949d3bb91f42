// Package api is the REST surface of the interview server: session
// lifecycle, stage submissions (resume, answers, aptitude), report
// generation, and the health and config probes. Live monitoring runs
// over the websocket endpoints in internal/ws; everything
// request-response lives here.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/aptitude"
	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/events"
	"github.com/greenroomhq/greenroom/internal/health"
	"github.com/greenroomhq/greenroom/internal/interview"
	"github.com/greenroomhq/greenroom/internal/report"
	"github.com/greenroomhq/greenroom/internal/resume"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
	"github.com/greenroomhq/greenroom/internal/ws"
)

// Deps collects everything the API serves from. DB, Objects, Publisher,
// and Tracker are optional: without a database the handlers skip
// persistence, without an object store resume uploads are refused, and
// without a publisher analysis jobs are refused.
type Deps struct {
	Config      *config.Config
	Store       *session.Store
	DB          *storage.Store
	Objects     *resume.ObjectStore
	Broadcaster *ws.Broadcaster
	Publisher   *events.Publisher
	Probe       *health.Probe
	Tracker     *report.Tracker
	Questions   []interview.Question
	Aptitude    []aptitude.Question
	Log         *zap.SugaredLogger
}

// API serves the REST endpoints.
type API struct {
	cfg         *config.Config
	store       *session.Store
	db          *storage.Store
	objects     *resume.ObjectStore
	broadcaster *ws.Broadcaster
	publisher   *events.Publisher
	probe       *health.Probe
	tracker     *report.Tracker
	questions   []interview.Question
	aptBank     []aptitude.Question
	log         *zap.SugaredLogger

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func New(d Deps) *API {
	a := &API{
		cfg:            d.Config,
		store:          d.Store,
		db:             d.DB,
		objects:        d.Objects,
		broadcaster:    d.Broadcaster,
		publisher:      d.Publisher,
		probe:          d.Probe,
		tracker:        d.Tracker,
		questions:      d.Questions,
		aptBank:        d.Aptitude,
		log:            d.Log,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range d.Config.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		a.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			a.allowedHosts[parsed.Host] = true
		}
	}

	return a
}

// Handler returns the full REST surface with the middleware chain
// applied. Mount it under /api/ on the server mux.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", a.handleSessions)
	mux.HandleFunc("/api/sessions/", a.handleSessionRoutes)
	mux.HandleFunc("/api/stats", a.handleStats)
	mux.HandleFunc("/api/health", a.handleHealth)
	mux.HandleFunc("/api/config", a.handleConfig)

	var h http.Handler = mux
	h = a.requireToken(h)
	h = a.withCORS(h)
	h = a.recoverPanics(h)
	h = a.logRequests(h)
	return h
}

func (a *API) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createSession(w, r)
	case http.MethodGet:
		a.listSessions(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSessionRoutes parses /api/sessions/{id}[/{action}] and
// dispatches to the stage handlers.
func (a *API) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	rawID, action, _ := strings.Cut(rest, "/")
	id, err := url.PathUnescape(rawID)
	if err != nil || id == "" || strings.Contains(action, "/") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.getSession(w, r, id)
	case "resume":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.uploadResume(w, r, id)
	case "questions":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.listQuestions(w, r, id)
	case "answers":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.submitAnswer(w, r, id)
	case "aptitude":
		switch r.Method {
		case http.MethodGet:
			a.listAptitude(w, r, id)
		case http.MethodPost:
			a.gradeAptitude(w, r, id)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "report":
		switch r.Method {
		case http.MethodPost:
			a.buildReport(w, r, id)
		case http.MethodGet:
			a.getReport(w, r, id)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "violations":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.listViolations(w, r, id)
	case "analyze":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.enqueueAnalyze(w, r, id)
	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}

// liveState returns the current state for a session, falling back to the
// last persisted row when the session is no longer in memory, as after a
// server restart.
func (a *API) liveState(ctx context.Context, id string) (*session.State, bool) {
	if st, ok := a.store.Get(id); ok {
		return st, true
	}
	if a.db == nil {
		return nil, false
	}
	row, err := a.db.Sessions.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	return row.State(), true
}

// commit publishes a state change everywhere it needs to go: the live
// store, the observer broadcaster, the stats tracker, and the database
// when one is configured. The store assigns a seat to first-time states
// through the pointer, so callers see it after commit returns.
func (a *API) commit(ctx context.Context, st *session.State, kind session.EventType) {
	a.store.UpdateAndNotify(st, func() {
		a.broadcaster.QueueUpdate([]*session.State{st.Clone()})
	})
	if a.tracker != nil {
		a.tracker.Events() <- session.Event{
			Type:        kind,
			State:       st.Clone(),
			ActiveCount: a.store.ActiveCount(),
		}
	}
	if a.db != nil {
		if err := a.db.Sessions.Save(ctx, storage.RowFromState(st)); err != nil {
			a.log.Warnw("session row save failed", "session", st.ID, "error", err)
		}
	}
}
