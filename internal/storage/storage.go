package storage

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a lookup matches no row. Callers test for
// it with errors.Is.
var ErrNotFound = errors.New("not found")

// Store bundles the repositories sharing one connection pool.
type Store struct {
	DB         *sql.DB
	Sessions   *SessionRepo
	Violations *ViolationRepo
	Answers    *AnswerRepo
	Resumes    *ResumeRepo
	Analyses   *AnalysisRepo
	Aptitude   *AptitudeRepo
	Reports    *ReportRepo
}

func New(db *sql.DB) *Store {
	return &Store{
		DB:         db,
		Sessions:   NewSessionRepo(db),
		Violations: NewViolationRepo(db),
		Answers:    NewAnswerRepo(db),
		Resumes:    NewResumeRepo(db),
		Analyses:   NewAnalysisRepo(db),
		Aptitude:   NewAptitudeRepo(db),
		Reports:    NewReportRepo(db),
	}
}

func (s *Store) Close() error {
	return s.DB.Close()
}
