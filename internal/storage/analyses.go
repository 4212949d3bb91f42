package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AnalysisRow is one model-produced resume/role fit analysis. Raw holds
// the full JSON the model returned; verdict, fit score, and summary are
// lifted out for querying.
type AnalysisRow struct {
	ID        int64
	SessionID string
	Verdict   string
	FitScore  float64
	Summary   string
	Raw       []byte
	Model     string
	CreatedAt time.Time
}

type AnalysisRepo struct {
	db *sql.DB
}

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) Insert(ctx context.Context, row *AnalysisRow) error {
	var raw interface{}
	if len(row.Raw) > 0 {
		raw = row.Raw
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses (session_id, verdict, fit_score, summary, raw, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.SessionID, row.Verdict, row.FitScore, row.Summary, raw, row.Model, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// Latest returns the most recent analysis for the session.
func (r *AnalysisRepo) Latest(ctx context.Context, sessionID string) (*AnalysisRow, error) {
	var row AnalysisRow
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, verdict, fit_score, summary, raw, model, created_at
		FROM analyses WHERE session_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID).Scan(&row.ID, &row.SessionID, &row.Verdict, &row.FitScore,
		&row.Summary, &row.Raw, &row.Model, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("analysis for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &row, nil
}
