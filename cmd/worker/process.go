package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/agent"
	"github.com/greenroomhq/greenroom/internal/events"
	"github.com/greenroomhq/greenroom/internal/resume"
	"github.com/greenroomhq/greenroom/internal/storage"
)

const retryAttempts = 3

// agentResult pairs the parsed analysis with the cleaned JSON it came
// from, so one retried call carries both out.
type agentResult struct {
	analysis agent.Analysis
	raw      []byte
}

// processor turns one analyze job into a stored analysis row: download
// the resume objects, extract their text, run the match agent, persist,
// and publish a status update at each step.
type processor struct {
	db        *storage.Store
	objects   *resume.ObjectStore
	agent     *agent.Agent
	publisher *events.Publisher
	log       *zap.SugaredLogger

	mu   sync.Mutex
	seen *roaring64.Bitmap
}

func newProcessor(db *storage.Store, objects *resume.ObjectStore, matcher *agent.Agent, publisher *events.Publisher, log *zap.SugaredLogger) *processor {
	return &processor{
		db:        db,
		objects:   objects,
		agent:     matcher,
		publisher: publisher,
		log:       log,
		seen:      roaring64.New(),
	}
}

// handle is the consumer callback. A nil return acks the delivery; an
// error hands it back for one redelivery.
func (p *processor) handle(ctx context.Context, job events.AnalyzeResumeJob) error {
	log := p.log.With("session", job.SessionID, "seq", job.Seq)

	if job.SessionID == "" || len(job.ResumeKeys) == 0 {
		log.Warnw("malformed job dropped")
		return nil
	}
	if !p.claim(job.Seq) {
		log.Infow("duplicate job skipped")
		return nil
	}

	p.publishStatus(ctx, job.SessionID, "processing", "resume analysis started")
	start := time.Now()

	text, err := p.gatherText(ctx, job.ResumeKeys)
	if err != nil {
		p.publishStatus(ctx, job.SessionID, "failed", "could not read resume")
		return fmt.Errorf("gather resume text: %w", err)
	}

	prompt := agent.MatchPrompt(text, job.JobDescription)
	result, err := retry(ctx, retryAttempts, func() (agentResult, error) {
		a, cleaned, err := p.agent.Analyze(ctx, job.SessionID, prompt)
		if err != nil {
			return agentResult{}, err
		}
		return agentResult{analysis: a, raw: cleaned}, nil
	})
	if err != nil {
		p.publishStatus(ctx, job.SessionID, "failed", "analysis did not complete")
		return fmt.Errorf("agent analyze: %w", err)
	}
	analysis := result.analysis

	row := &storage.AnalysisRow{
		SessionID: job.SessionID,
		Verdict:   analysis.MatchLevel,
		FitScore:  float64(analysis.MatchScore),
		Summary:   analysis.Summary,
		Raw:       result.raw,
		Model:     p.agent.Model(),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.db.Analyses.Insert(ctx, row); err != nil {
		p.publishStatus(ctx, job.SessionID, "failed", "could not store analysis")
		return fmt.Errorf("insert analysis: %w", err)
	}

	p.publishStatus(ctx, job.SessionID, "completed",
		fmt.Sprintf("match score %d (%s)", analysis.MatchScore, analysis.MatchLevel))
	log.Infow("analysis stored",
		"score", analysis.MatchScore,
		"level", analysis.MatchLevel,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// claim marks a job sequence as seen. Redelivered duplicates collapse to
// one run; unstamped jobs (seq zero) are never deduplicated.
func (p *processor) claim(seq uint64) bool {
	if seq == 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen.CheckedAdd(seq)
}

// gatherText downloads every resume object and concatenates the extracted
// text. The document kind comes from the object key extension, which the
// upload path derives from the original filename.
func (p *processor) gatherText(ctx context.Context, keys []string) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		data, err := retry(ctx, retryAttempts, func() ([]byte, error) {
			return p.objects.Get(ctx, key)
		})
		if err != nil {
			return "", fmt.Errorf("download %s: %w", key, err)
		}
		kind, err := resume.DetectKind("", key)
		if err != nil {
			return "", fmt.Errorf("detect kind of %s: %w", key, err)
		}
		text, err := resume.Extract(kind, data)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", key, err)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (p *processor) publishStatus(ctx context.Context, sessionID, status, message string) {
	if err := p.publisher.PublishUpdate(ctx, sessionID, status, message); err != nil {
		p.log.Warnw("status publish failed", "session", sessionID, "status", status, "error", err)
	}
}

// retry runs fn up to attempts times, pausing longer after each failure.
// A cancelled context cuts the wait short.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var err error
	for i := 0; i < attempts; i++ {
		var v T
		if v, err = fn(); err == nil {
			return v, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
		}
	}
	return zero, err
}
