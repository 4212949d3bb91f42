package session

import (
	"encoding/json"
	"time"
)

// Stage tracks where a candidate is in an interview attempt.
type Stage int

const (
	StageCreated Stage = iota
	StageResume
	StageInterview
	StageAptitude
	StageReport
	StageComplete
	StageAbandoned
)

var stageNames = map[Stage]string{
	StageCreated:   "created",
	StageResume:    "resume_review",
	StageInterview: "interview",
	StageAptitude:  "aptitude",
	StageReport:    "report",
	StageComplete:  "complete",
	StageAbandoned: "abandoned",
}

var stageFromName = map[string]Stage{
	"created":       StageCreated,
	"resume_review": StageResume,
	"interview":     StageInterview,
	"aptitude":      StageAptitude,
	"report":        StageReport,
	"complete":      StageComplete,
	"abandoned":     StageAbandoned,
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseStage maps a wire or database name back to its Stage.
func ParseStage(name string) (Stage, bool) {
	s, ok := stageFromName[name]
	return s, ok
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := stageFromName[name]; ok {
		*s = v
	}
	return nil
}

// AnswerState summarizes one answered interview question within a session.
type AnswerState struct {
	Index      int       `json:"index"`
	Question   string    `json:"question"`
	Score      int       `json:"score"`
	Valid      bool      `json:"valid"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// State is the live view of one interview attempt. The store hands out
// copies, never the stored pointer.
type State struct {
	ID             string        `json:"id"`
	Candidate      string        `json:"candidate"`
	Email          string        `json:"email,omitempty"`
	Role           string        `json:"role,omitempty"`
	Stage          Stage         `json:"stage"`
	Seat           int           `json:"seat"`
	CameraReady    bool          `json:"cameraReady"`
	CameraError    string        `json:"cameraError,omitempty"`
	Monitoring     bool          `json:"monitoring"`
	StatusLevel    string        `json:"statusLevel,omitempty"`
	WarningCount   int           `json:"warningCount"`
	TabSwitchCount int           `json:"tabSwitchCount"`
	LookAwayCount  int           `json:"lookAwayCount"`
	OutOfFrame     bool          `json:"outOfFrame,omitempty"`
	CurrentWarning string        `json:"currentWarning,omitempty"`
	ResumeKey      string        `json:"resumeKey,omitempty"`
	ATSScore       float64       `json:"atsScore,omitempty"`
	InterviewScore float64       `json:"interviewScore,omitempty"`
	AptitudeScore  float64       `json:"aptitudeScore,omitempty"`
	Readiness      float64       `json:"readiness"`
	Answers        []AnswerState `json:"answers,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	LastActivityAt time.Time     `json:"lastActivityAt"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the State, duplicating pointer and slice
// fields so the copy can be mutated independently of the original.
func (s *State) Clone() *State {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if len(s.Answers) > 0 {
		c.Answers = make([]AnswerState, len(s.Answers))
		copy(c.Answers, s.Answers)
	}
	return &c
}

// UpdateReadiness recomputes the composite readiness score from whichever
// stage scores exist so far. Scores are on a 0-100 scale; readiness is their
// mean, less half a point per proctoring warning, floored at zero.
func (s *State) UpdateReadiness() {
	var sum float64
	var n int
	for _, v := range []float64{s.ATSScore, s.InterviewScore, s.AptitudeScore} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		s.Readiness = 0
		return
	}
	r := sum/float64(n) - 0.5*float64(s.WarningCount)
	if r < 0 {
		r = 0
	}
	s.Readiness = r
}

func (s *State) IsTerminal() bool {
	return s.Stage == StageComplete || s.Stage == StageAbandoned
}
