package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// CreateWithQuestions inserts an exam in SCHEDULED state together with its
// question set. Both writes share one transaction, so a failed question
// insert never leaves a quiz behind with a partial or empty question list.
// The slice may be empty for exams that carry no questions.
func (r *ExamRepository) CreateWithQuestions(ctx context.Context, e *model.Exam, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO exams (institution_code, title, type, batch, subject, exam_date, start_time, duration_minutes, status, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id, created_at, updated_at`,
			e.InstitutionCode, e.Title, e.Type, e.Batch, e.Subject, e.ExamDate,
			e.StartTime, e.DurationMinutes, model.ExamStatusScheduled, e.CreatedBy,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return err
		}

		for i := range questions {
			questions[i].ExamID = e.ID
		}
		return insertQuestions(ctx, tx, questions)
	})
}

// GetByID retrieves one exam.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, institution_code, title, type, batch, subject, exam_date, start_time, duration_minutes, status, created_by, created_at, updated_at
		 FROM exams
		 WHERE id = $1`, id,
	).Scan(&e.ID, &e.InstitutionCode, &e.Title, &e.Type, &e.Batch, &e.Subject, &e.ExamDate,
		&e.StartTime, &e.DurationMinutes, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves exams for an institution with optional batch and status filters.
func (r *ExamRepository) List(ctx context.Context, institutionCode string, batch *string, status *model.ExamStatus, page, perPage int) ([]model.Exam, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM exams WHERE institution_code = $1`
	args := []any{institutionCode}

	if batch != nil && *batch != "" {
		args = append(args, *batch)
		baseQuery += fmt.Sprintf(" AND batch = $%d", len(args))
	}
	if status != nil && *status != "" {
		args = append(args, *status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, institution_code, title, type, batch, subject, exam_date, start_time, duration_minutes, status, created_by, created_at, updated_at` +
		baseQuery + fmt.Sprintf(" ORDER BY exam_date DESC, start_time DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.InstitutionCode, &e.Title, &e.Type, &e.Batch, &e.Subject,
			&e.ExamDate, &e.StartTime, &e.DurationMinutes, &e.Status, &e.CreatedBy,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListByBatch retrieves exams visible to a student's batch, newest first.
func (r *ExamRepository) ListByBatch(ctx context.Context, institutionCode, batch string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, title, type, batch, subject, exam_date, start_time, duration_minutes, status, created_by, created_at, updated_at
		 FROM exams
		 WHERE institution_code = $1 AND batch = $2
		 ORDER BY exam_date DESC, start_time DESC`,
		institutionCode, batch,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.InstitutionCode, &e.Title, &e.Type, &e.Batch, &e.Subject,
			&e.ExamDate, &e.StartTime, &e.DurationMinutes, &e.Status, &e.CreatedBy,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateStatus transitions an exam, but only from the expected current status.
// Returns false when the exam was not in that status (lost race or bad request).
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ExamStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListLiveQuizzes retrieves every ONLINE_QUIZ exam currently LIVE, across
// institutions. Used by the deadline sweeper.
func (r *ExamRepository) ListLiveQuizzes(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, title, type, batch, subject, exam_date, start_time, duration_minutes, status, created_by, created_at, updated_at
		 FROM exams
		 WHERE type = $1 AND status = $2`,
		model.ExamTypeOnlineQuiz, model.ExamStatusLive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.InstitutionCode, &e.Title, &e.Type, &e.Batch, &e.Subject,
			&e.ExamDate, &e.StartTime, &e.DurationMinutes, &e.Status, &e.CreatedBy,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Delete removes an exam. Questions and submissions cascade.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
