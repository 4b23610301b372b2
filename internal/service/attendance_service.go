package service

import (
	"context"
	"errors"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// ErrAttendanceBounds signals present days exceeding total days.
var ErrAttendanceBounds = errors.New("present days cannot exceed total days")

// AttendanceService handles attendance summaries.
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(attendanceRepo *repository.AttendanceRepository) *AttendanceService {
	return &AttendanceService{attendanceRepo: attendanceRepo}
}

// Upsert creates or overwrites a student's term attendance.
func (s *AttendanceService) Upsert(ctx context.Context, institutionCode string, req *model.UpsertAttendanceRequest) (*model.Attendance, error) {
	if req.PresentDays > req.TotalDays {
		return nil, ErrAttendanceBounds
	}

	a := &model.Attendance{
		InstitutionCode: institutionCode,
		StudentID:       req.StudentID,
		Term:            req.Term,
		TotalDays:       req.TotalDays,
		PresentDays:     req.PresentDays,
	}
	if err := s.attendanceRepo.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByStudent fetches a student's attendance summaries.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID int) ([]model.Attendance, error) {
	return s.attendanceRepo.ListByStudent(ctx, studentID)
}
