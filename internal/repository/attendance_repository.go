package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// AttendanceRepository handles attendance data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Upsert creates or overwrites the attendance summary for (student, term).
func (r *AttendanceRepository) Upsert(ctx context.Context, a *model.Attendance) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance (institution_code, student_id, term, total_days, present_days)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, term) DO UPDATE
		 SET total_days = EXCLUDED.total_days,
		     present_days = EXCLUDED.present_days,
		     last_updated = NOW()
		 RETURNING id, last_updated`,
		a.InstitutionCode, a.StudentID, a.Term, a.TotalDays, a.PresentDays,
	).Scan(&a.ID, &a.LastUpdated)
}

// ListByStudent retrieves all attendance summaries for one student.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attendance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, student_id, term, total_days, present_days, last_updated
		 FROM attendance
		 WHERE student_id = $1
		 ORDER BY last_updated DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Attendance
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.InstitutionCode, &a.StudentID, &a.Term,
			&a.TotalDays, &a.PresentDays, &a.LastUpdated); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
