package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReportRow is the generated readiness report for a session: the full
// document as JSON plus its markdown rendering, so clients fetch either
// form without rebuilding.
type ReportRow struct {
	SessionID   string
	Payload     []byte
	Markdown    string
	GeneratedAt time.Time
}

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Save upserts: regenerating replaces the previous report.
func (r *ReportRepo) Save(ctx context.Context, row *ReportRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (session_id, payload, markdown, generated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			markdown = EXCLUDED.markdown,
			generated_at = EXCLUDED.generated_at`,
		row.SessionID, row.Payload, row.Markdown, row.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, sessionID string) (*ReportRow, error) {
	var row ReportRow
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, payload, markdown, generated_at
		FROM reports WHERE session_id = $1`,
		sessionID).Scan(&row.SessionID, &row.Payload, &row.Markdown, &row.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &row, nil
}
