package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// notificationFeedLimit caps how many notifications a feed query returns.
const notificationFeedLimit = 100

// NotificationService handles announcements.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Publish sends a notification to a whole institution or one batch.
func (s *NotificationService) Publish(ctx context.Context, institutionCode, senderName string, req *model.CreateNotificationRequest) (*model.Notification, error) {
	n := &model.Notification{
		InstitutionCode: institutionCode,
		Title:           req.Title,
		Message:         req.Message,
		TargetBatch:     req.TargetBatch,
		SenderName:      senderName,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// FeedForBatch lists notifications visible to one batch.
func (s *NotificationService) FeedForBatch(ctx context.Context, institutionCode, batch string) ([]model.Notification, error) {
	return s.notificationRepo.ListForBatch(ctx, institutionCode, batch, notificationFeedLimit)
}

// ListByInstitution lists all notifications of an institution.
func (s *NotificationService) ListByInstitution(ctx context.Context, institutionCode string) ([]model.Notification, error) {
	return s.notificationRepo.ListByInstitution(ctx, institutionCode, notificationFeedLimit)
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.notificationRepo.Delete(ctx, id)
}
