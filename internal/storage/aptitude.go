package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AptitudeRow is the final aptitude round result for a session.
// PerCategory maps category name to percentage correct.
type AptitudeRow struct {
	SessionID   string
	Score       float64
	Correct     int
	Total       int
	Grade       string
	PerCategory map[string]float64
	FinishedAt  time.Time
}

type AptitudeRepo struct {
	db *sql.DB
}

func NewAptitudeRepo(db *sql.DB) *AptitudeRepo {
	return &AptitudeRepo{db: db}
}

func (r *AptitudeRepo) Save(ctx context.Context, row *AptitudeRow) error {
	var perCat interface{}
	if len(row.PerCategory) > 0 {
		b, err := json.Marshal(row.PerCategory)
		if err != nil {
			return fmt.Errorf("failed to encode category scores: %w", err)
		}
		perCat = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO aptitude_results (session_id, score, correct, total, grade, per_category, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			score = EXCLUDED.score,
			correct = EXCLUDED.correct,
			total = EXCLUDED.total,
			grade = EXCLUDED.grade,
			per_category = EXCLUDED.per_category,
			finished_at = EXCLUDED.finished_at`,
		row.SessionID, row.Score, row.Correct, row.Total, row.Grade, perCat, row.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save aptitude result: %w", err)
	}
	return nil
}

func (r *AptitudeRepo) Get(ctx context.Context, sessionID string) (*AptitudeRow, error) {
	var row AptitudeRow
	var perCat []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, score, correct, total, grade, per_category, finished_at
		FROM aptitude_results WHERE session_id = $1`,
		sessionID).Scan(&row.SessionID, &row.Score, &row.Correct, &row.Total,
		&row.Grade, &perCat, &row.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("aptitude result for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get aptitude result: %w", err)
	}
	if len(perCat) > 0 {
		if err := json.Unmarshal(perCat, &row.PerCategory); err != nil {
			return nil, fmt.Errorf("failed to decode category scores: %w", err)
		}
	}
	return &row, nil
}
