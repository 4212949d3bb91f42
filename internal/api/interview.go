package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/greenroomhq/greenroom/internal/interview"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
)

// questionSet applies the configured cap to the bank.
func (a *API) questionSet() []interview.Question {
	if limit := a.cfg.Interview.MaxQuestions; limit > 0 && limit < len(a.questions) {
		return a.questions[:limit]
	}
	return a.questions
}

type questionDTO struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Focus    []string `json:"focus,omitempty"`
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.liveState(r.Context(), id); !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	out := lo.Map(a.questionSet(), func(q interview.Question, i int) questionDTO {
		return questionDTO{Index: i, Question: q.Text, Focus: q.Focus}
	})
	respondJSON(w, http.StatusOK, out)
}

type answerRequest struct {
	Question int    `json:"question"`
	Answer   string `json:"answer"`
}

type answerResponse struct {
	Analysis interview.Analysis `json:"analysis"`
	Session  *session.State     `json:"session"`
}

// submitAnswer scores one behavioral answer and folds it into the
// session. Resubmitting the same question replaces the earlier attempt,
// in the store and in the database alike.
func (a *API) submitAnswer(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if st.IsTerminal() {
		respondError(w, http.StatusConflict, "session already finished")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	questions := a.questionSet()
	if req.Question < 0 || req.Question >= len(questions) {
		respondError(w, http.StatusBadRequest, "question index out of range")
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		respondError(w, http.StatusBadRequest, "answer is required")
		return
	}

	questionText := questions[req.Question].Text
	analysis := interview.Analyze(questionText, req.Answer)
	relevance := interview.CheckRelevance(questionText, req.Answer)
	now := time.Now().UTC()

	if a.db != nil {
		row := &storage.AnswerRow{
			SessionID:  id,
			Index:      req.Question,
			Question:   questionText,
			Answer:     req.Answer,
			Clarity:    analysis.Clarity,
			Confidence: analysis.Confidence,
			Structure:  analysis.Structure,
			Relevance:  relevance.Score,
			Total:      analysis.Total,
			Valid:      analysis.Valid,
			AnsweredAt: now,
		}
		if err := a.db.Answers.Save(r.Context(), row); err != nil {
			a.log.Warnw("answer row save failed", "session", id, "error", err)
		}
	}

	entry := session.AnswerState{
		Index:      req.Question,
		Question:   questionText,
		Score:      analysis.Total,
		Valid:      analysis.Valid,
		AnsweredAt: now,
	}
	replaced := false
	for i := range st.Answers {
		if st.Answers[i].Index == req.Question {
			st.Answers[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		st.Answers = append(st.Answers, entry)
	}

	st.InterviewScore = interviewScore(st.Answers)
	if st.Stage < session.StageInterview {
		st.Stage = session.StageInterview
	}
	st.LastActivityAt = now
	st.UpdateReadiness()
	a.commit(r.Context(), st, session.EventUpdate)

	a.log.Infow("answer scored",
		"session", id,
		"question", req.Question,
		"total", analysis.Total,
		"valid", analysis.Valid)
	respondJSON(w, http.StatusOK, answerResponse{Analysis: analysis, Session: st})
}

// interviewScore is the mean of valid answer totals on the 0-100 scale,
// the same formula the report uses over the stored rows.
func interviewScore(answers []session.AnswerState) float64 {
	valid := lo.Filter(answers, func(a session.AnswerState, _ int) bool { return a.Valid })
	if len(valid) == 0 {
		return 0
	}
	sum := lo.SumBy(valid, func(a session.AnswerState) int { return a.Score })
	return float64(sum) / float64(len(valid)) * 10
}
