package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenroomhq/greenroom/internal/session"
)

type createSessionRequest struct {
	Candidate string `json:"candidate"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Candidate = strings.TrimSpace(req.Candidate)
	if req.Candidate == "" {
		respondError(w, http.StatusBadRequest, "candidate is required")
		return
	}

	now := time.Now().UTC()
	st := &session.State{
		ID:             uuid.NewString(),
		Candidate:      req.Candidate,
		Email:          strings.TrimSpace(req.Email),
		Role:           strings.TrimSpace(req.Role),
		Stage:          session.StageCreated,
		StartedAt:      now,
		LastActivityAt: now,
	}
	a.commit(r.Context(), st, session.EventNew)

	a.log.Infow("session created",
		"session", st.ID,
		"candidate", st.Candidate,
		"role", st.Role)
	respondJSON(w, http.StatusCreated, st)
}

func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	states := a.store.GetAll()
	sort.Slice(states, func(i, j int) bool { return states[i].Seat < states[j].Seat })
	respondJSON(w, http.StatusOK, states)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, st)
}
