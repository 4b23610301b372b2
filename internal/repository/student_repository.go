package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create inserts a new student under an institution.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (institution_code, name, enrollment_id, batch, section, parent_phone, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.InstitutionCode, s.Name, s.EnrollmentID, s.Batch, s.Section, s.ParentPhone, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves one student.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, institution_code, name, enrollment_id, batch, section, parent_phone, password_hash, created_at
		 FROM students
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.InstitutionCode, &s.Name, &s.EnrollmentID, &s.Batch, &s.Section,
		&s.ParentPhone, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByEnrollment retrieves a student by institution code and enrollment ID,
// the pair students log in with.
func (r *StudentRepository) GetByEnrollment(ctx context.Context, institutionCode, enrollmentID string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, institution_code, name, enrollment_id, batch, section, parent_phone, password_hash, created_at
		 FROM students
		 WHERE institution_code = $1 AND enrollment_id = $2`, institutionCode, enrollmentID,
	).Scan(&s.ID, &s.InstitutionCode, &s.Name, &s.EnrollmentID, &s.Batch, &s.Section,
		&s.ParentPhone, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves students of an institution with optional batch/section filters and pagination.
func (r *StudentRepository) List(ctx context.Context, institutionCode string, batch, section *string, page, perPage int) ([]model.Student, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM students WHERE institution_code = $1`
	args := []any{institutionCode}

	if batch != nil && *batch != "" {
		args = append(args, *batch)
		baseQuery += fmt.Sprintf(" AND batch = $%d", len(args))
	}
	if section != nil && *section != "" {
		args = append(args, *section)
		baseQuery += fmt.Sprintf(" AND section = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, institution_code, name, enrollment_id, batch, section, parent_phone, password_hash, created_at` +
		baseQuery + fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.InstitutionCode, &s.Name, &s.EnrollmentID, &s.Batch,
			&s.Section, &s.ParentPhone, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// UpdatePassword replaces a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	return err
}

// Delete removes a student. Submissions and results cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
