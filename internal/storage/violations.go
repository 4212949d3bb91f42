package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/greenroomhq/greenroom/internal/proctor"
)

// ViolationRow is one persisted violation log entry.
type ViolationRow struct {
	ID         int64
	SessionID  string
	Kind       string
	Message    string
	OccurredAt time.Time
}

// Violation converts the row back to its in-memory form. Rows written by
// a newer build with kinds this build doesn't know are skipped by callers
// via the second return.
func (r *ViolationRow) Violation() (proctor.Violation, bool) {
	kind, ok := proctor.KindFromString(r.Kind)
	if !ok {
		return proctor.Violation{}, false
	}
	return proctor.Violation{Kind: kind, Timestamp: r.OccurredAt, Message: r.Message}, true
}

type ViolationRepo struct {
	db *sql.DB
}

func NewViolationRepo(db *sql.DB) *ViolationRepo {
	return &ViolationRepo{db: db}
}

func (r *ViolationRepo) Insert(ctx context.Context, sessionID string, v proctor.Violation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO violations (session_id, kind, message, occurred_at) VALUES ($1, $2, $3, $4)`,
		sessionID, v.Kind.String(), v.Message, v.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}
	return nil
}

func (r *ViolationRepo) ListBySession(ctx context.Context, sessionID string) ([]*ViolationRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, kind, message, occurred_at
		 FROM violations WHERE session_id = $1 ORDER BY occurred_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var out []*ViolationRow
	for rows.Next() {
		var row ViolationRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.Kind, &row.Message, &row.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
