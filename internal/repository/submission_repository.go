package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// SubmissionRepository handles quiz submission data access. Answer maps are
// stored as JSONB keyed by question ID.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts an in-progress submission (student starts the quiz). When a
// row already exists for (exam_id, student_id) the insert is a no-op and
// pgx.ErrNoRows is returned; the caller then fetches the existing row.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (exam_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at, last_active`,
		s.ExamID, s.StudentID, model.SubmissionStatusInProgress,
	).Scan(&s.ID, &s.StartedAt, &s.LastActive)
}

// GetByID retrieves one submission.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, answers, score, status, late, started_at, submitted_at, last_active
		 FROM submissions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answers, &s.Score, &s.Status, &s.Late,
		&s.StartedAt, &s.SubmittedAt, &s.LastActive)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByExamAndStudent retrieves the submission for a specific exam-student combination.
func (r *SubmissionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, answers, score, status, late, started_at, submitted_at, last_active
		 FROM submissions
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answers, &s.Score, &s.Status, &s.Late,
		&s.StartedAt, &s.SubmittedAt, &s.LastActive)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SaveAnswers overwrites the whole answer map of an in-progress submission.
// Returns false when the submission is no longer IN_PROGRESS.
func (r *SubmissionRepository) SaveAnswers(ctx context.Context, id uuid.UUID, answers map[string]int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $1, last_active = NOW()
		 WHERE id = $2 AND status = $3`,
		answers, id, model.SubmissionStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Finalize moves an in-progress submission to SUBMITTED with its final
// answers and late flag. The score lands separately once the score sync
// worker has processed the attempt. Returns false when already submitted.
func (r *SubmissionRepository) Finalize(ctx context.Context, id uuid.UUID, answers map[string]int, late bool, submittedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $1, status = $2, late = $3, submitted_at = $4, last_active = NOW()
		 WHERE id = $5 AND status = $6`,
		answers, model.SubmissionStatusSubmitted, late, submittedAt,
		id, model.SubmissionStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListInProgressByExam retrieves every in-progress submission for an exam.
// Used by the deadline sweeper to find overdue attempts.
func (r *SubmissionRepository) ListInProgressByExam(ctx context.Context, examID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_id, answers, score, status, late, started_at, submitted_at, last_active
		 FROM submissions
		 WHERE exam_id = $1 AND status = $2`,
		examID, model.SubmissionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// ListByExam retrieves all submissions for an exam joined with student names,
// with pagination. Ordered by score descending for the results view.
func (r *SubmissionRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.Submission, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sub.id, sub.exam_id, sub.student_id, st.name, sub.answers, sub.score, sub.status, sub.late, sub.started_at, sub.submitted_at, sub.last_active
		 FROM submissions sub
		 JOIN students st ON sub.student_id = st.id
		 WHERE sub.exam_id = $1
		 ORDER BY sub.score DESC, st.name ASC
		 LIMIT $2 OFFSET $3`,
		examID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.StudentName, &s.Answers,
			&s.Score, &s.Status, &s.Late, &s.StartedAt, &s.SubmittedAt, &s.LastActive); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	return subs, total, rows.Err()
}

// BatchUpdateScores applies a set of (submission_id, score) pairs in one
// statement. Used by the score sync worker when draining its queue.
func (r *SubmissionRepository) BatchUpdateScores(ctx context.Context, ids []uuid.UUID, scores []int) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(scores) {
		return errors.New("ids and scores length mismatch")
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE submissions AS sub
		 SET score = v.score
		 FROM (SELECT UNNEST($1::uuid[]) AS id, UNNEST($2::int[]) AS score) AS v
		 WHERE sub.id = v.id`,
		ids, scores)
	return err
}

// UpdateScore applies a single score. Fallback path when a batch fails.
func (r *SubmissionRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions SET score = $1 WHERE id = $2`, score, id)
	return err
}

func scanSubmissions(rows pgx.Rows) ([]model.Submission, error) {
	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answers, &s.Score, &s.Status,
			&s.Late, &s.StartedAt, &s.SubmittedAt, &s.LastActive); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
