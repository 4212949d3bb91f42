// Package client provides the WebSocket and HTTP clients for the Greenroom
// backend. Types mirror the backend wire protocol without importing backend
// packages, so the TUI stays honest about what actually crosses the wire.
package client

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSnapshot      MessageType = "snapshot"
	MsgDelta         MessageType = "delta"
	MsgViolation     MessageType = "violation"
	MsgProctorStatus MessageType = "proctor_status"
	MsgCameraStatus  MessageType = "camera_status"
	MsgError         MessageType = "error"
)

// WSMessage is the envelope for all server-sent messages. Seq increases by
// one per broadcast; a gap between deltas means the next periodic snapshot
// will reconcile.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// Stage is a session's position in the interview flow.
type Stage string

const (
	StageCreated   Stage = "created"
	StageResume    Stage = "resume_review"
	StageInterview Stage = "interview"
	StageAptitude  Stage = "aptitude"
	StageReport    Stage = "report"
	StageComplete  Stage = "complete"
	StageAbandoned Stage = "abandoned"
)

// Terminal reports whether the stage ends an attempt.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageAbandoned
}

// Answer mirrors internal/session.AnswerState.
type Answer struct {
	Index      int       `json:"index"`
	Question   string    `json:"question"`
	Score      int       `json:"score"`
	Valid      bool      `json:"valid"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// Session mirrors internal/session.State as broadcast to observers. Email
// and candidate fields may arrive masked by the server's privacy filter.
type Session struct {
	ID             string     `json:"id"`
	Candidate      string     `json:"candidate"`
	Email          string     `json:"email,omitempty"`
	Role           string     `json:"role,omitempty"`
	Stage          Stage      `json:"stage"`
	Seat           int        `json:"seat"`
	CameraReady    bool       `json:"cameraReady"`
	CameraError    string     `json:"cameraError,omitempty"`
	Monitoring     bool       `json:"monitoring"`
	StatusLevel    string     `json:"statusLevel,omitempty"`
	WarningCount   int        `json:"warningCount"`
	TabSwitchCount int        `json:"tabSwitchCount"`
	LookAwayCount  int        `json:"lookAwayCount"`
	OutOfFrame     bool       `json:"outOfFrame,omitempty"`
	CurrentWarning string     `json:"currentWarning,omitempty"`
	ATSScore       float64    `json:"atsScore,omitempty"`
	InterviewScore float64    `json:"interviewScore,omitempty"`
	AptitudeScore  float64    `json:"aptitudeScore,omitempty"`
	Readiness      float64    `json:"readiness"`
	Answers        []Answer   `json:"answers,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Violation mirrors internal/proctor.Violation.
type Violation struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// ProctorSnapshot mirrors internal/proctor.Snapshot: the live monitoring
// state for one session, pushed on every change.
type ProctorSnapshot struct {
	Phase             string  `json:"phase"`
	Face              string  `json:"face"`
	Level             string  `json:"level"`
	Label             string  `json:"label"`
	CameraReady       bool    `json:"cameraReady"`
	CameraError       string  `json:"cameraError,omitempty"`
	Warnings          int     `json:"warnings"`
	TabSwitches       int     `json:"tabSwitches"`
	LookAways         int     `json:"lookAways"`
	OutOfFrame        bool    `json:"outOfFrame"`
	OutOfFrameSeconds int     `json:"outOfFrameSeconds"`
	CurrentWarning    string  `json:"currentWarning,omitempty"`
	ViolationCount    int     `json:"violationCount"`
	Brightness        float64 `json:"brightness"`
	SkinRatio         float64 `json:"skinRatio"`
}

// --- WebSocket payload types ---

// SnapshotPayload is sent on connect and every snapshot interval.
type SnapshotPayload struct {
	Sessions []*Session `json:"sessions"`
}

// DeltaPayload carries incremental session updates.
type DeltaPayload struct {
	Updates []*Session `json:"updates"`
	Removed []string   `json:"removed,omitempty"`
}

// ViolationPayload is pushed once per recorded violation.
type ViolationPayload struct {
	SessionID string    `json:"sessionId"`
	Violation Violation `json:"violation"`
}

// ProctorStatusPayload carries a monitoring snapshot for one session.
type ProctorStatusPayload struct {
	SessionID string          `json:"sessionId"`
	Snapshot  ProctorSnapshot `json:"snapshot"`
}

// CameraStatusPayload reports camera acquisition transitions.
type CameraStatusPayload struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// ErrorPayload wraps a server-side error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// --- HTTP response types ---

// Stats mirrors the aggregate practice stats returned by /api/stats.
type Stats struct {
	Version               int            `json:"version"`
	TotalSessions         int            `json:"totalSessions"`
	CompletedSessions     int            `json:"completedSessions"`
	AbandonedSessions     int            `json:"abandonedSessions"`
	CleanStreak           int            `json:"cleanStreak"`
	SessionsPerRole       map[string]int `json:"sessionsPerRole"`
	ViolationsByKind      map[string]int `json:"violationsByKind"`
	TotalViolations       int            `json:"totalViolations"`
	BestScores            BestScores     `json:"bestScores"`
	PracticeDays          []string       `json:"practiceDays"`
	MaxConcurrentActive   int            `json:"maxConcurrentActive"`
	MaxSessionDurationSec float64        `json:"maxSessionDurationSec"`
	LastUpdated           time.Time      `json:"lastUpdated"`
}

// BestScores holds the all-time high for each scored stage.
type BestScores struct {
	ATS       float64 `json:"ats"`
	Interview float64 `json:"interview"`
	Aptitude  float64 `json:"aptitude"`
	Readiness float64 `json:"readiness"`
}

// ViolationRecord is one row from /api/sessions/{id}/violations.
type ViolationRecord struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ClientConfig is the client-safe subset returned by /api/config.
type ClientConfig struct {
	InterviewQuestions int   `json:"interviewQuestions"`
	AptitudeQuestions  int   `json:"aptitudeQuestions"`
	SampleIntervalMS   int64 `json:"sampleIntervalMs"`
	WarningClearMS     int64 `json:"warningClearMs"`
	AnalysisEnabled    bool  `json:"analysisEnabled"`
	AuthRequired       bool  `json:"authRequired"`
}
