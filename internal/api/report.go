package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/greenroomhq/greenroom/internal/report"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
)

// buildReport assembles and persists the readiness report, closing the
// attempt: a session that was still in progress moves to complete.
// Rebuilding the report for a finished session replaces the stored one
// without touching the state again.
func (a *API) buildReport(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	wasTerminal := st.IsTerminal()
	if !wasTerminal {
		now := time.Now().UTC()
		st.Stage = session.StageComplete
		st.CompletedAt = &now
		st.LastActivityAt = now
		st.UpdateReadiness()
	}

	rep := report.Build(a.reportInput(r.Context(), st))

	if !wasTerminal {
		a.commit(r.Context(), st, session.EventTerminal)
	}

	if a.db != nil {
		payload, err := json.Marshal(rep)
		if err != nil {
			a.log.Errorw("report marshal failed", "session", id, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		row := &storage.ReportRow{
			SessionID:   id,
			Payload:     payload,
			Markdown:    rep.Markdown(),
			GeneratedAt: rep.GeneratedAt,
		}
		if err := a.db.Reports.Save(r.Context(), row); err != nil {
			a.log.Warnw("report row save failed", "session", id, "error", err)
		}
	}

	a.log.Infow("report generated",
		"session", id,
		"readiness", rep.Readiness,
		"stage_was_terminal", wasTerminal)
	respondJSON(w, http.StatusOK, rep)
}

// getReport serves the stored report, as JSON by default or rendered
// markdown with ?format=markdown. Without a database the report is
// rebuilt from live state on every call.
func (a *API) getReport(w http.ResponseWriter, r *http.Request, id string) {
	wantMarkdown := r.URL.Query().Get("format") == "markdown"

	if a.db != nil {
		row, err := a.db.Reports.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no report generated for this session")
			return
		}
		if err != nil {
			a.log.Errorw("report lookup failed", "session", id, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load report")
			return
		}
		if wantMarkdown {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(row.Markdown))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(row.Payload)
		return
	}

	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	rep := report.Build(a.reportInput(r.Context(), st))
	if wantMarkdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(rep.Markdown()))
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// reportInput gathers the stored record for a session. Without a
// database it falls back to what the live state kept, which is enough to
// score every stage the candidate reached.
func (a *API) reportInput(ctx context.Context, st *session.State) report.BuildInput {
	in := report.BuildInput{State: st}
	if a.db == nil {
		in.Answers = answerRowsFromState(st)
		return in
	}

	if rows, err := a.db.Answers.ListBySession(ctx, st.ID); err != nil {
		a.log.Warnw("answer rows load failed", "session", st.ID, "error", err)
		in.Answers = answerRowsFromState(st)
	} else {
		in.Answers = lo.Map(rows, func(row *storage.AnswerRow, _ int) storage.AnswerRow { return *row })
	}

	if rows, err := a.db.Violations.ListBySession(ctx, st.ID); err != nil {
		a.log.Warnw("violation rows load failed", "session", st.ID, "error", err)
	} else {
		in.Violations = lo.Map(rows, func(row *storage.ViolationRow, _ int) storage.ViolationRow { return *row })
	}

	if apt, err := a.db.Aptitude.Get(ctx, st.ID); err == nil {
		in.Aptitude = apt
	} else if !errors.Is(err, storage.ErrNotFound) {
		a.log.Warnw("aptitude row load failed", "session", st.ID, "error", err)
	}

	if analysis, err := a.db.Analyses.Latest(ctx, st.ID); err == nil {
		in.Analysis = analysis
	} else if !errors.Is(err, storage.ErrNotFound) {
		a.log.Warnw("analysis row load failed", "session", st.ID, "error", err)
	}

	return in
}

// answerRowsFromState rebuilds enough of the answer record to score a
// report when no database is attached. Per-axis scores are absent; the
// totals are what the state kept.
func answerRowsFromState(st *session.State) []storage.AnswerRow {
	return lo.Map(st.Answers, func(ans session.AnswerState, _ int) storage.AnswerRow {
		return storage.AnswerRow{
			SessionID:  st.ID,
			Index:      ans.Index,
			Question:   ans.Question,
			Total:      ans.Score,
			Valid:      ans.Valid,
			AnsweredAt: ans.AnsweredAt,
		}
	})
}

type violationDTO struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (a *API) listViolations(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.liveState(r.Context(), id); !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if a.db == nil {
		respondJSON(w, http.StatusOK, []violationDTO{})
		return
	}

	rows, err := a.db.Violations.ListBySession(r.Context(), id)
	if err != nil {
		a.log.Errorw("violation rows load failed", "session", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load violations")
		return
	}
	out := lo.Map(rows, func(row *storage.ViolationRow, _ int) violationDTO {
		return violationDTO{Kind: row.Kind, Message: row.Message, At: row.OccurredAt}
	})
	respondJSON(w, http.StatusOK, out)
}
