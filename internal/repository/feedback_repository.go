package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// FeedbackRepository handles student feedback data access.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create inserts a feedback message.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO feedback (institution_code, student_id, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		f.InstitutionCode, f.StudentID, f.Message,
	).Scan(&f.ID, &f.CreatedAt)
}

// ListByInstitution retrieves feedback for an institution with student names,
// newest first, paginated.
func (r *FeedbackRepository) ListByInstitution(ctx context.Context, institutionCode string, page, perPage int) ([]model.Feedback, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback WHERE institution_code = $1`, institutionCode,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.institution_code, f.student_id, st.name, f.message, f.created_at
		 FROM feedback f
		 JOIN students st ON f.student_id = st.id
		 WHERE f.institution_code = $1
		 ORDER BY f.created_at DESC
		 LIMIT $2 OFFSET $3`,
		institutionCode, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.InstitutionCode, &f.StudentID, &f.StudentName,
			&f.Message, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}
