package service

import (
	"context"
	"fmt"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// defaultStudentPassword is applied when an admin enrolls a student without
// choosing one. Students are expected to change it on first login.
const defaultStudentPassword = "student123"

// StudentService handles student enrollment and logins.
type StudentService struct {
	studentRepo *repository.StudentRepository
	auth        *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, auth *AuthService) *StudentService {
	return &StudentService{studentRepo: studentRepo, auth: auth}
}

// Create enrolls a student under an institution.
func (s *StudentService) Create(ctx context.Context, institutionCode string, req *model.CreateStudentRequest) (*model.Student, error) {
	password := req.Password
	if password == "" {
		password = defaultStudentPassword
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		InstitutionCode: institutionCode,
		Name:            req.Name,
		EnrollmentID:    req.EnrollmentID,
		Batch:           req.Batch,
		Section:         req.Section,
		ParentPhone:     req.ParentPhone,
		PasswordHash:    hash,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// Login verifies an enrollment ID and password and returns a student token.
func (s *StudentService) Login(ctx context.Context, institutionCode, enrollmentID, password string) (*model.Student, string, error) {
	student, err := s.studentRepo.GetByEnrollment(ctx, institutionCode, enrollmentID)
	if err != nil {
		if repository.ErrNoRows(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get student: %w", err)
	}

	if err := s.auth.CheckPassword(student.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.InstitutionCode, student.Batch)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// ParentLogin verifies a student's enrollment ID against the registered parent
// phone number and returns a read-only parent token.
func (s *StudentService) ParentLogin(ctx context.Context, institutionCode, enrollmentID, parentPhone string) (*model.Student, string, error) {
	student, err := s.studentRepo.GetByEnrollment(ctx, institutionCode, enrollmentID)
	if err != nil {
		if repository.ErrNoRows(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get student: %w", err)
	}

	if student.ParentPhone == nil || *student.ParentPhone != parentPhone {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateParentToken(student.ID, student.InstitutionCode)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return student, token, nil
}

// GetByID fetches one student.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// List fetches students of an institution with optional filters.
func (s *StudentService) List(ctx context.Context, institutionCode string, batch, section *string, page, perPage int) ([]model.Student, int64, error) {
	return s.studentRepo.List(ctx, institutionCode, batch, section, page, perPage)
}

// UpdatePassword replaces a student's password.
func (s *StudentService) UpdatePassword(ctx context.Context, id int, password string) error {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.studentRepo.UpdatePassword(ctx, id, hash)
}

// Delete removes a student and resets any active session.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.auth.ResetStudentSession(ctx, id)
}
