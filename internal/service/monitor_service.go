package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// MonitorService orchestrates live quiz monitoring.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo}
}

// MonitorSnapshot is the SSE payload streamed to the admin monitor view.
type MonitorSnapshot struct {
	ExamID    uuid.UUID               `json:"exam_id"`
	Students  []repository.MonitorRow `json:"students"`
	InFlight  int                     `json:"in_flight"`
	Submitted int                     `json:"submitted"`
}

// Snapshot builds the current monitoring view for one exam.
func (s *MonitorService) Snapshot(ctx context.Context, examID uuid.UUID) (*MonitorSnapshot, error) {
	rows, err := s.monitorRepo.Snapshot(ctx, examID)
	if err != nil {
		return nil, err
	}

	snap := &MonitorSnapshot{ExamID: examID, Students: rows}
	for _, r := range rows {
		if r.Status == model.SubmissionStatusSubmitted {
			snap.Submitted++
		} else {
			snap.InFlight++
		}
	}
	return snap, nil
}
