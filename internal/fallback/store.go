package fallback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// ErrNotFound is returned when the store has no row for the lookup.
var ErrNotFound = errors.New("fallback: submission not found")

// ErrAlreadySubmitted is returned when Finalize hits a submission that is no
// longer in progress.
var ErrAlreadySubmitted = errors.New("fallback: submission already finalized")

// Store mirrors quiz submissions into a local SQLite file so attempts survive
// a Postgres outage. Rows written here are reconciled by hand; the server
// never replays them automatically.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite file at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQLite)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL,
  student_id INTEGER NOT NULL,
  student_name TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL DEFAULT '{}',
  score INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  late INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER NOT NULL,
  submitted_at INTEGER,
  last_active INTEGER NOT NULL,
  UNIQUE (exam_id, student_id)
);
`

// Start inserts an in-progress submission for (examID, studentID) or returns
// the existing one. The boolean reports whether a new row was created.
func (s *Store) Start(ctx context.Context, examID uuid.UUID, studentID int, studentName string) (*model.Submission, bool, error) {
	now := time.Now()
	id := uuid.New()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, exam_id, student_id, student_name, answers_json, status, started_at, last_active)
		VALUES (?, ?, ?, ?, '{}', ?, ?, ?)
		ON CONFLICT (exam_id, student_id) DO NOTHING
	`, id.String(), examID.String(), studentID, studentName, string(model.SubmissionStatusInProgress), now.Unix(), now.Unix())
	if err != nil {
		return nil, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	sub, err := s.GetByExamStudent(ctx, examID, studentID)
	if err != nil {
		return nil, false, err
	}
	return sub, affected > 0, nil
}

// SaveProgress overwrites the answer map of an in-progress submission and
// bumps last_active. Finalized submissions are left untouched.
func (s *Store) SaveProgress(ctx context.Context, id uuid.UUID, answers map[string]int) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET answers_json = ?, last_active = ?
		WHERE id = ? AND status = ?
	`, string(raw), time.Now().Unix(), id.String(), string(model.SubmissionStatusInProgress))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySubmitted
	}
	return nil
}

// Finalize moves an in-progress submission to SUBMITTED with the given answer
// map, score and late flag. A second call fails with ErrAlreadySubmitted.
func (s *Store) Finalize(ctx context.Context, id uuid.UUID, answers map[string]int, score int, late bool) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}

	now := time.Now()
	lateVal := 0
	if late {
		lateVal = 1
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET answers_json = ?, score = ?, status = ?, late = ?, submitted_at = ?, last_active = ?
		WHERE id = ? AND status = ?
	`, string(raw), score, string(model.SubmissionStatusSubmitted), lateVal,
		now.Unix(), now.Unix(), id.String(), string(model.SubmissionStatusInProgress))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySubmitted
	}
	return nil
}

// GetByID fetches one submission by its ID.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, exam_id, student_id, student_name, answers_json, score, status, late, started_at, submitted_at, last_active
		FROM submissions
		WHERE id = ?
	`, id.String())
	return scanSubmission(row)
}

// GetByExamStudent fetches the submission for one student in one exam.
func (s *Store) GetByExamStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, exam_id, student_id, student_name, answers_json, score, status, late, started_at, submitted_at, last_active
		FROM submissions
		WHERE exam_id = ? AND student_id = ?
	`, examID.String(), studentID)
	return scanSubmission(row)
}

// ListPending lists submissions still awaiting reconciliation, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exam_id, student_id, student_name, answers_json, score, status, late, started_at, submitted_at, last_active
		FROM submissions
		ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var (
		sub         model.Submission
		idRaw       string
		examRaw     string
		answersRaw  string
		lateVal     int
		startedAt   int64
		submittedAt sql.NullInt64
		lastActive  int64
	)

	err := row.Scan(&idRaw, &examRaw, &sub.StudentID, &sub.StudentName, &answersRaw,
		&sub.Score, &sub.Status, &lateVal, &startedAt, &submittedAt, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sub.ID, err = uuid.Parse(idRaw)
	if err != nil {
		return nil, err
	}
	sub.ExamID, err = uuid.Parse(examRaw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answersRaw), &sub.Answers); err != nil {
		return nil, err
	}
	sub.Late = lateVal != 0
	sub.StartedAt = time.Unix(startedAt, 0)
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0)
		sub.SubmittedAt = &t
	}
	sub.LastActive = time.Unix(lastActive, 0)
	return &sub, nil
}
