package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// ResultRepository handles published result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a published result for a student.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO results (institution_code, student_id, subject, marks_obtained, total_marks, exam_name, term, exam_date, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		res.InstitutionCode, res.StudentID, res.Subject, res.MarksObtained, res.TotalMarks,
		res.ExamName, res.Term, res.ExamDate, res.UploadedBy,
	).Scan(&res.ID, &res.CreatedAt)
}

// ListByStudent retrieves all results for one student, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, student_id, subject, marks_obtained, total_marks, exam_name, term, exam_date, uploaded_by, created_at
		 FROM results
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.InstitutionCode, &res.StudentID, &res.Subject,
			&res.MarksObtained, &res.TotalMarks, &res.ExamName, &res.Term, &res.ExamDate,
			&res.UploadedBy, &res.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListByInstitution retrieves results for an institution with pagination.
func (r *ResultRepository) ListByInstitution(ctx context.Context, institutionCode string, page, perPage int) ([]model.Result, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE institution_code = $1`, institutionCode,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, student_id, subject, marks_obtained, total_marks, exam_name, term, exam_date, uploaded_by, created_at
		 FROM results
		 WHERE institution_code = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		institutionCode, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.InstitutionCode, &res.StudentID, &res.Subject,
			&res.MarksObtained, &res.TotalMarks, &res.ExamName, &res.Term, &res.ExamDate,
			&res.UploadedBy, &res.CreatedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// SubjectAverage is an aggregate row for the performance report.
type SubjectAverage struct {
	Subject    string  `json:"subject"`
	AvgPercent float64 `json:"avg_percent"`
	Count      int64   `json:"count"`
}

// AverageBySubject aggregates result percentages per subject for an institution.
func (r *ResultRepository) AverageBySubject(ctx context.Context, institutionCode string) ([]SubjectAverage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subject, AVG(marks_obtained::float / total_marks * 100), COUNT(*)
		 FROM results
		 WHERE institution_code = $1
		 GROUP BY subject
		 ORDER BY subject`, institutionCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []SubjectAverage
	for rows.Next() {
		var a SubjectAverage
		if err := rows.Scan(&a.Subject, &a.AvgPercent, &a.Count); err != nil {
			return nil, err
		}
		averages = append(averages, a)
	}
	return averages, rows.Err()
}
