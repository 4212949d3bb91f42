// Package report turns the accumulated record of an interview attempt into
// its final readiness document, and keeps machine-wide practice stats
// across attempts.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
)

// BuildInput collects everything known about one session at report time.
// Optional pointers stay nil for stages the candidate skipped.
type BuildInput struct {
	State      *session.State
	Answers    []storage.AnswerRow
	Violations []storage.ViolationRow
	Aptitude   *storage.AptitudeRow
	Analysis   *storage.AnalysisRow
}

// Report is the final readiness document for one interview attempt.
type Report struct {
	SessionID   string    `json:"sessionId"`
	Candidate   string    `json:"candidate"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	Stage       string    `json:"stage"`
	GeneratedAt time.Time `json:"generatedAt"`

	ATSScore       float64           `json:"atsScore"`
	InterviewScore float64           `json:"interviewScore"`
	Answers        []AnswerSummary   `json:"answers,omitempty"`
	Aptitude       *AptitudeSummary  `json:"aptitude,omitempty"`
	Proctoring     ProctoringSummary `json:"proctoring"`
	Agent          *AgentSummary     `json:"agent,omitempty"`

	Readiness float64 `json:"readiness"`
	Verdict   string  `json:"verdict"`
}

// AnswerSummary condenses one scored interview answer.
type AnswerSummary struct {
	Index      int    `json:"index"`
	Question   string `json:"question"`
	Clarity    int    `json:"clarity"`
	Confidence int    `json:"confidence"`
	Structure  int    `json:"structure"`
	Total      int    `json:"total"`
	Valid      bool   `json:"valid"`
}

// AptitudeSummary condenses the aptitude test result.
type AptitudeSummary struct {
	Score       float64            `json:"score"`
	Correct     int                `json:"correct"`
	Total       int                `json:"total"`
	Grade       string             `json:"grade"`
	PerCategory map[string]float64 `json:"perCategory,omitempty"`
}

// ProctoringSummary condenses the monitoring record: counters, derived
// status level, and the full violation log.
type ProctoringSummary struct {
	StatusLevel      string           `json:"statusLevel"`
	WarningCount     int              `json:"warningCount"`
	TabSwitches      int              `json:"tabSwitches"`
	LookAways        int              `json:"lookAways"`
	ViolationsByKind map[string]int   `json:"violationsByKind,omitempty"`
	Log              []ViolationEntry `json:"log,omitempty"`
}

// ViolationEntry is one line in the proctoring log.
type ViolationEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// AgentSummary condenses the LLM match analysis, when one ran.
type AgentSummary struct {
	Verdict  string  `json:"verdict"`
	FitScore float64 `json:"fitScore"`
	Summary  string  `json:"summary,omitempty"`
	Model    string  `json:"model,omitempty"`
}

// Build assembles the report. Scores are recomputed from the stored rows
// rather than trusted from the live state, so a report generated after a
// reconnect or restart still adds up.
func Build(in BuildInput) *Report {
	s := in.State
	r := &Report{
		SessionID:   s.ID,
		Candidate:   s.Candidate,
		Email:       s.Email,
		Role:        s.Role,
		Stage:       s.Stage.String(),
		GeneratedAt: time.Now().UTC(),
		ATSScore:    s.ATSScore,
	}

	answers := make([]storage.AnswerRow, len(in.Answers))
	copy(answers, in.Answers)
	sort.Slice(answers, func(i, j int) bool { return answers[i].Index < answers[j].Index })
	r.Answers = lo.Map(answers, func(a storage.AnswerRow, _ int) AnswerSummary {
		return AnswerSummary{
			Index:      a.Index,
			Question:   a.Question,
			Clarity:    a.Clarity,
			Confidence: a.Confidence,
			Structure:  a.Structure,
			Total:      a.Total,
			Valid:      a.Valid,
		}
	})

	// Per-answer totals are 0-10; the stage score is their mean on the
	// common 0-100 scale. Rejected answers do not count.
	valid := lo.Filter(answers, func(a storage.AnswerRow, _ int) bool { return a.Valid })
	if len(valid) > 0 {
		sum := lo.SumBy(valid, func(a storage.AnswerRow) int { return a.Total })
		r.InterviewScore = float64(sum) / float64(len(valid)) * 10
	}

	if in.Aptitude != nil {
		r.Aptitude = &AptitudeSummary{
			Score:       in.Aptitude.Score,
			Correct:     in.Aptitude.Correct,
			Total:       in.Aptitude.Total,
			Grade:       in.Aptitude.Grade,
			PerCategory: in.Aptitude.PerCategory,
		}
	}

	r.Proctoring = ProctoringSummary{
		StatusLevel:  proctor.LevelFor(false, true, s.WarningCount).String(),
		WarningCount: s.WarningCount,
		TabSwitches:  s.TabSwitchCount,
		LookAways:    s.LookAwayCount,
		ViolationsByKind: lo.CountValuesBy(in.Violations, func(v storage.ViolationRow) string {
			return v.Kind
		}),
		Log: lo.Map(in.Violations, func(v storage.ViolationRow, _ int) ViolationEntry {
			return ViolationEntry{At: v.OccurredAt, Kind: v.Kind, Message: v.Message}
		}),
	}

	if in.Analysis != nil {
		r.Agent = &AgentSummary{
			Verdict:  in.Analysis.Verdict,
			FitScore: in.Analysis.FitScore,
			Summary:  in.Analysis.Summary,
			Model:    in.Analysis.Model,
		}
	}

	st := s.Clone()
	st.InterviewScore = r.InterviewScore
	if r.Aptitude != nil {
		st.AptitudeScore = r.Aptitude.Score
	}
	st.UpdateReadiness()
	r.Readiness = st.Readiness
	r.Verdict = verdictFor(r.Readiness)

	return r
}

func verdictFor(readiness float64) string {
	switch {
	case readiness >= 80:
		return "Ready. Strong performance across the board."
	case readiness >= 60:
		return "Nearly ready. Solid overall, with a few areas to polish."
	case readiness >= 40:
		return "Developing. Needs focused practice before real interviews."
	default:
		return "Early days. Work back through each stage and try again."
	}
}

// Markdown renders the report as a document for terminal display.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# Interview Readiness Report\n\n")
	fmt.Fprintf(&b, "**Candidate:** %s", r.Candidate)
	if r.Email != "" {
		fmt.Fprintf(&b, " (%s)", r.Email)
	}
	b.WriteString("  \n")
	if r.Role != "" {
		fmt.Fprintf(&b, "**Target role:** %s  \n", r.Role)
	}
	fmt.Fprintf(&b, "**Session:** `%s`  \n", r.SessionID)
	fmt.Fprintf(&b, "**Stage:** %s  \n", r.Stage)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))

	b.WriteString("## Scores\n\n")
	b.WriteString("| Area | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Resume (ATS) | %.1f |\n", r.ATSScore)
	fmt.Fprintf(&b, "| Interview | %.1f |\n", r.InterviewScore)
	if r.Aptitude != nil {
		fmt.Fprintf(&b, "| Aptitude | %.1f (%s) |\n", r.Aptitude.Score, r.Aptitude.Grade)
	}
	fmt.Fprintf(&b, "| **Readiness** | **%.1f** |\n\n", r.Readiness)

	if len(r.Answers) > 0 {
		b.WriteString("## Interview answers\n\n")
		for _, a := range r.Answers {
			fmt.Fprintf(&b, "### Q%d. %s\n\n", a.Index+1, a.Question)
			if !a.Valid {
				b.WriteString("Rejected: the response did not read as a genuine answer.\n\n")
				continue
			}
			fmt.Fprintf(&b, "Score %d/10 (clarity %d, confidence %d, structure %d)\n\n",
				a.Total, a.Clarity, a.Confidence, a.Structure)
		}
	}

	if r.Aptitude != nil {
		b.WriteString("## Aptitude\n\n")
		fmt.Fprintf(&b, "Grade %s: %d/%d correct (%.1f%%)\n\n",
			r.Aptitude.Grade, r.Aptitude.Correct, r.Aptitude.Total, r.Aptitude.Score)
		cats := lo.Keys(r.Aptitude.PerCategory)
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", cat, r.Aptitude.PerCategory[cat])
		}
		if len(cats) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## Proctoring\n\n")
	fmt.Fprintf(&b, "Status %s with %d warnings (%d tab switches, %d look-aways).\n\n",
		r.Proctoring.StatusLevel, r.Proctoring.WarningCount,
		r.Proctoring.TabSwitches, r.Proctoring.LookAways)
	if len(r.Proctoring.Log) > 0 {
		for _, v := range r.Proctoring.Log {
			fmt.Fprintf(&b, "- %s %s: %s\n", v.At.UTC().Format("15:04:05"), v.Kind, v.Message)
		}
		b.WriteString("\n")
	}

	if r.Agent != nil {
		b.WriteString("## Match analysis\n\n")
		fmt.Fprintf(&b, "**%s** (fit %.0f/100)\n\n", r.Agent.Verdict, r.Agent.FitScore)
		if r.Agent.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", r.Agent.Summary)
		}
	}

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "%s\n", r.Verdict)

	return b.String()
}
