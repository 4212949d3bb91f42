package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ResumeRow records the uploaded resume for a session: where the original
// file lives in object storage and the text extracted from it. The text is
// kept so the analysis worker doesn't have to re-parse the document.
type ResumeRow struct {
	SessionID   string
	ObjectKey   string
	Filename    string
	ContentType string
	SizeBytes   int64
	Text        string
	UploadedAt  time.Time
}

type ResumeRepo struct {
	db *sql.DB
}

func NewResumeRepo(db *sql.DB) *ResumeRepo {
	return &ResumeRepo{db: db}
}

// Save upserts: re-uploading replaces the previous resume.
func (r *ResumeRepo) Save(ctx context.Context, row *ResumeRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resumes (session_id, object_key, filename, content_type,
			size_bytes, extracted_text, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			object_key = EXCLUDED.object_key,
			filename = EXCLUDED.filename,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes,
			extracted_text = EXCLUDED.extracted_text,
			uploaded_at = EXCLUDED.uploaded_at`,
		row.SessionID, row.ObjectKey, row.Filename, row.ContentType,
		row.SizeBytes, row.Text, row.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

func (r *ResumeRepo) Get(ctx context.Context, sessionID string) (*ResumeRow, error) {
	var row ResumeRow
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, object_key, filename, content_type,
			size_bytes, extracted_text, uploaded_at
		FROM resumes WHERE session_id = $1`,
		sessionID).Scan(&row.SessionID, &row.ObjectKey, &row.Filename,
		&row.ContentType, &row.SizeBytes, &row.Text, &row.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resume for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &row, nil
}
