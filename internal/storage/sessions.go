package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/greenroomhq/greenroom/internal/session"
)

// SessionRow is the persisted slice of a session. Live-only fields such
// as camera state and the current warning banner stay in the in-memory
// store and are rebuilt on reconnect.
type SessionRow struct {
	ID             string
	Candidate      string
	Email          string
	Role           string
	Stage          string
	ResumeKey      string
	ATSScore       float64
	InterviewScore float64
	AptitudeScore  float64
	Readiness      float64
	WarningCount   int
	TabSwitchCount int
	LookAwayCount  int
	StartedAt      time.Time
	LastActivityAt time.Time
	CompletedAt    *time.Time
}

// RowFromState projects a live state onto its persisted columns.
func RowFromState(st *session.State) *SessionRow {
	return &SessionRow{
		ID:             st.ID,
		Candidate:      st.Candidate,
		Email:          st.Email,
		Role:           st.Role,
		Stage:          st.Stage.String(),
		ResumeKey:      st.ResumeKey,
		ATSScore:       st.ATSScore,
		InterviewScore: st.InterviewScore,
		AptitudeScore:  st.AptitudeScore,
		Readiness:      st.Readiness,
		WarningCount:   st.WarningCount,
		TabSwitchCount: st.TabSwitchCount,
		LookAwayCount:  st.LookAwayCount,
		StartedAt:      st.StartedAt,
		LastActivityAt: st.LastActivityAt,
		CompletedAt:    st.CompletedAt,
	}
}

// State rebuilds a live state from the row. Unknown stage names fall
// back to created rather than failing the load.
func (r *SessionRow) State() *session.State {
	stage, ok := session.ParseStage(r.Stage)
	if !ok {
		stage = session.StageCreated
	}
	return &session.State{
		ID:             r.ID,
		Candidate:      r.Candidate,
		Email:          r.Email,
		Role:           r.Role,
		Stage:          stage,
		ResumeKey:      r.ResumeKey,
		ATSScore:       r.ATSScore,
		InterviewScore: r.InterviewScore,
		AptitudeScore:  r.AptitudeScore,
		Readiness:      r.Readiness,
		WarningCount:   r.WarningCount,
		TabSwitchCount: r.TabSwitchCount,
		LookAwayCount:  r.LookAwayCount,
		StartedAt:      r.StartedAt,
		LastActivityAt: r.LastActivityAt,
		CompletedAt:    r.CompletedAt,
	}
}

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, candidate, email, role, stage, resume_key,
	ats_score, interview_score, aptitude_score, readiness,
	warning_count, tab_switch_count, look_away_count,
	started_at, last_activity_at, completed_at`

// Save upserts the row. The server calls this on every stage change, so
// insert and update share one statement.
func (r *SessionRepo) Save(ctx context.Context, row *SessionRow) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			candidate = EXCLUDED.candidate,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			stage = EXCLUDED.stage,
			resume_key = EXCLUDED.resume_key,
			ats_score = EXCLUDED.ats_score,
			interview_score = EXCLUDED.interview_score,
			aptitude_score = EXCLUDED.aptitude_score,
			readiness = EXCLUDED.readiness,
			warning_count = EXCLUDED.warning_count,
			tab_switch_count = EXCLUDED.tab_switch_count,
			look_away_count = EXCLUDED.look_away_count,
			last_activity_at = EXCLUDED.last_activity_at,
			completed_at = EXCLUDED.completed_at`

	var completed sql.NullTime
	if row.CompletedAt != nil {
		completed = sql.NullTime{Time: *row.CompletedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Candidate, row.Email, row.Role, row.Stage, row.ResumeKey,
		row.ATSScore, row.InterviewScore, row.AptitudeScore, row.Readiness,
		row.WarningCount, row.TabSwitchCount, row.LookAwayCount,
		row.StartedAt, row.LastActivityAt, completed)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRow, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	row, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row, nil
}

// List returns sessions newest first. A limit of 0 means no limit.
func (r *SessionRepo) List(ctx context.Context, limit int) ([]*SessionRow, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*SessionRow
	for rows.Next() {
		row, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(sc rowScanner) (*SessionRow, error) {
	var row SessionRow
	var completed sql.NullTime
	err := sc.Scan(
		&row.ID, &row.Candidate, &row.Email, &row.Role, &row.Stage, &row.ResumeKey,
		&row.ATSScore, &row.InterviewScore, &row.AptitudeScore, &row.Readiness,
		&row.WarningCount, &row.TabSwitchCount, &row.LookAwayCount,
		&row.StartedAt, &row.LastActivityAt, &completed)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		row.CompletedAt = &t
	}
	return &row, nil
}
