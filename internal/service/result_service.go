package service

import (
	"context"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// ResultService handles published result business logic.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// Publish records a result for a student.
func (s *ResultService) Publish(ctx context.Context, institutionCode, uploadedBy string, req *model.CreateResultRequest) (*model.Result, error) {
	res := &model.Result{
		InstitutionCode: institutionCode,
		StudentID:       req.StudentID,
		Subject:         req.Subject,
		MarksObtained:   req.MarksObtained,
		TotalMarks:      req.TotalMarks,
		ExamName:        req.ExamName,
		Term:            req.Term,
		ExamDate:        req.ExamDate,
		UploadedBy:      uploadedBy,
	}
	if err := s.resultRepo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByStudent fetches all results of one student.
func (s *ResultService) ListByStudent(ctx context.Context, studentID int) ([]model.Result, error) {
	return s.resultRepo.ListByStudent(ctx, studentID)
}

// ListByInstitution fetches an institution's results with pagination.
func (s *ResultService) ListByInstitution(ctx context.Context, institutionCode string, page, perPage int) ([]model.Result, int64, error) {
	return s.resultRepo.ListByInstitution(ctx, institutionCode, page, perPage)
}

// SubjectAverages aggregates percentage averages per subject.
func (s *ResultService) SubjectAverages(ctx context.Context, institutionCode string) ([]repository.SubjectAverage, error) {
	return s.resultRepo.AverageBySubject(ctx, institutionCode)
}
