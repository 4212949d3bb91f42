package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AnswerRow is one scored interview answer. Resubmitting the same
// question replaces the previous attempt.
type AnswerRow struct {
	ID         int64
	SessionID  string
	Index      int
	Question   string
	Answer     string
	Clarity    int
	Confidence int
	Structure  int
	Relevance  int
	Total      int
	Valid      bool
	AnsweredAt time.Time
}

type AnswerRepo struct {
	db *sql.DB
}

func NewAnswerRepo(db *sql.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

func (r *AnswerRepo) Save(ctx context.Context, row *AnswerRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO answers (session_id, question_index, question, answer,
			clarity, confidence, structure, relevance, total, valid, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id, question_index) DO UPDATE SET
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			clarity = EXCLUDED.clarity,
			confidence = EXCLUDED.confidence,
			structure = EXCLUDED.structure,
			relevance = EXCLUDED.relevance,
			total = EXCLUDED.total,
			valid = EXCLUDED.valid,
			answered_at = EXCLUDED.answered_at`,
		row.SessionID, row.Index, row.Question, row.Answer,
		row.Clarity, row.Confidence, row.Structure, row.Relevance,
		row.Total, row.Valid, row.AnsweredAt)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (r *AnswerRepo) ListBySession(ctx context.Context, sessionID string) ([]*AnswerRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, question_index, question, answer,
			clarity, confidence, structure, relevance, total, valid, answered_at
		FROM answers WHERE session_id = $1 ORDER BY question_index`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var out []*AnswerRow
	for rows.Next() {
		var row AnswerRow
		err := rows.Scan(&row.ID, &row.SessionID, &row.Index, &row.Question, &row.Answer,
			&row.Clarity, &row.Confidence, &row.Structure, &row.Relevance,
			&row.Total, &row.Valid, &row.AnsweredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
