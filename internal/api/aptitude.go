package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/greenroomhq/greenroom/internal/aptitude"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
)

// listAptitude hands out the question bank. Correct answers carry a
// json:"-" tag, so the bank serializes clean.
func (a *API) listAptitude(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.liveState(r.Context(), id); !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, a.aptBank)
}

type aptitudeResponse struct {
	Result  aptitude.Result `json:"result"`
	Session *session.State  `json:"session"`
}

func (a *API) gradeAptitude(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if st.IsTerminal() {
		respondError(w, http.StatusConflict, "session already finished")
		return
	}

	var sub aptitude.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(sub.Answers) == 0 {
		respondError(w, http.StatusBadRequest, "no answers submitted")
		return
	}

	result := aptitude.Grade(a.aptBank, sub)
	now := time.Now().UTC()

	if a.db != nil {
		row := &storage.AptitudeRow{
			SessionID:   id,
			Score:       result.Score,
			Correct:     result.Correct,
			Total:       result.Total,
			Grade:       result.Grade,
			PerCategory: result.PerCategory(),
			FinishedAt:  now,
		}
		if err := a.db.Aptitude.Save(r.Context(), row); err != nil {
			a.log.Warnw("aptitude row save failed", "session", id, "error", err)
		}
	}

	st.AptitudeScore = result.Score
	if st.Stage < session.StageAptitude {
		st.Stage = session.StageAptitude
	}
	st.LastActivityAt = now
	st.UpdateReadiness()
	a.commit(r.Context(), st, session.EventUpdate)

	a.log.Infow("aptitude graded",
		"session", id,
		"score", result.Score,
		"correct", result.Correct,
		"total", result.Total)
	respondJSON(w, http.StatusOK, aptitudeResponse{Result: result, Session: st})
}
