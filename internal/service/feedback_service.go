package service

import (
	"context"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// FeedbackService handles student feedback.
type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedbackRepo *repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo}
}

// Send records a feedback message from a student.
func (s *FeedbackService) Send(ctx context.Context, institutionCode string, studentID int, message string) (*model.Feedback, error) {
	f := &model.Feedback{
		InstitutionCode: institutionCode,
		StudentID:       studentID,
		Message:         message,
	}
	if err := s.feedbackRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ListByInstitution lists an institution's feedback inbox.
func (s *FeedbackService) ListByInstitution(ctx context.Context, institutionCode string, page, perPage int) ([]model.Feedback, int64, error) {
	return s.feedbackRepo.ListByInstitution(ctx, institutionCode, page, perPage)
}
