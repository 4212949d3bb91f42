// Package storage persists sessions, violations, answers, and analysis
// results to Postgres. The in-memory session store remains the source of
// truth while a session is live; rows here are written on stage changes
// and read back for reports and the review tooling.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
)

// Connect opens the Postgres pool, verifies it, and applies the schema.
func Connect(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	log.Infow("connected to postgres",
		"host", cfg.Host,
		"database", cfg.Name,
		"max_open_conns", cfg.MaxOpenConns)

	return db, nil
}

// migrate applies idempotent DDL. Statements run in order so later tables
// can reference earlier ones.
func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			candidate TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL,
			resume_key TEXT NOT NULL DEFAULT '',
			ats_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			interview_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			aptitude_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			readiness DOUBLE PRECISION NOT NULL DEFAULT 0,
			warning_count INTEGER NOT NULL DEFAULT 0,
			tab_switch_count INTEGER NOT NULL DEFAULT 0,
			look_away_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			last_activity_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_stage ON sessions(stage)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC)`,
		`CREATE TABLE IF NOT EXISTS violations (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_session_id ON violations(session_id)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			question_index INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			clarity INTEGER NOT NULL DEFAULT 0,
			confidence INTEGER NOT NULL DEFAULT 0,
			structure INTEGER NOT NULL DEFAULT 0,
			relevance INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			valid BOOLEAN NOT NULL DEFAULT TRUE,
			answered_at TIMESTAMPTZ NOT NULL,
			UNIQUE (session_id, question_index)
		)`,
		`CREATE TABLE IF NOT EXISTS resumes (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
			object_key TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			size_bytes BIGINT NOT NULL DEFAULT 0,
			extracted_text TEXT NOT NULL DEFAULT '',
			uploaded_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			verdict TEXT NOT NULL DEFAULT '',
			fit_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			summary TEXT NOT NULL DEFAULT '',
			raw JSONB,
			model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_session_id ON analyses(session_id)`,
		`CREATE TABLE IF NOT EXISTS aptitude_results (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
			score DOUBLE PRECISION NOT NULL,
			correct INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			grade TEXT NOT NULL DEFAULT '',
			per_category JSONB,
			finished_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
			payload JSONB NOT NULL,
			markdown TEXT NOT NULL DEFAULT '',
			generated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
