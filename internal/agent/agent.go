// Package agent runs the resume/role match analysis through Gemini via
// the ADK runner. One Agent is built at startup and shared by the worker
// pool; each Analyze call gets its own short-lived ADK session.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/logging"
)

const appName = "resume_matcher"

// Analysis is the structured verdict the model is instructed to return.
type Analysis struct {
	MatchScore int      `json:"match_score"`
	MatchLevel string   `json:"match_level"`
	Strengths  []string `json:"strengths"`
	Gaps       []string `json:"gaps"`
	Summary    string   `json:"summary"`
}

type Agent struct {
	runner   *runner.Runner
	sessions session.Service
	model    string
	log      *zap.SugaredLogger
}

// New builds the Gemini model, the matcher agent, and its runner.
func New(ctx context.Context, cfg config.AgentConfig, log *zap.SugaredLogger) (*Agent, error) {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent API key is not configured")
	}
	model, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	matcher, err := llmagent.New(llmagent.Config{
		Name:        appName,
		Model:       model,
		Description: "Evaluates how well a resume fits a target role",
		Instruction: instruction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	svc := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        matcher.Name(),
		Agent:          matcher,
		SessionService: svc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return &Agent{runner: r, sessions: svc, model: cfg.Model, log: log}, nil
}

// Model reports the configured model name, recorded with each analysis.
func (a *Agent) Model() string {
	return a.model
}

// Analyze streams one prompt through the model and parses the structured
// result. The returned bytes are the cleaned JSON exactly as parsed, for
// storing alongside the lifted fields.
func (a *Agent) Analyze(ctx context.Context, sessionID, prompt string) (Analysis, []byte, error) {
	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    sessionID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return Analysis{}, nil, fmt.Errorf("failed to create agent session: %w", err)
	}
	defer func() {
		err := a.sessions.Delete(ctx, &session.DeleteRequest{
			AppName:   created.Session.AppName(),
			UserID:    created.Session.UserID(),
			SessionID: created.Session.ID(),
		})
		if err != nil {
			a.log.Warnw("failed to delete agent session", "error", err)
		}
	}()

	stream := a.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}, adkagent.RunConfig{})

	var out string
	for event, err := range stream {
		if err != nil {
			return Analysis{}, nil, fmt.Errorf("agent stream: %w", err)
		}
		if event != nil && event.IsFinalResponse() && len(event.Content.Parts) > 0 {
			out = event.Content.Parts[0].Text
		}
	}
	if strings.TrimSpace(out) == "" {
		return Analysis{}, nil, fmt.Errorf("empty agent response")
	}

	cleaned := CleanJSON(out)
	var res Analysis
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return Analysis{}, nil, fmt.Errorf("failed to parse agent response: %w", err)
	}
	// The model occasionally wanders outside the asked range.
	if res.MatchScore < 0 {
		res.MatchScore = 0
	} else if res.MatchScore > 100 {
		res.MatchScore = 100
	}
	return res, []byte(cleaned), nil
}

// CleanJSON strips the markdown code fence the model sometimes wraps
// around its output despite being told not to.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
