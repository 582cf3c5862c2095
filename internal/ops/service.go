// Package ops covers the event-day operational side screens: the shared task
// checklist and the media benefits promised to sponsors.
package ops

import (
	"context"
	"fmt"

	"gala-ops/internal/store"
	"gala-ops/pkg/models"

	"go.uber.org/zap"
)

// Service handles tasks and media benefits
type Service struct {
	tasks  store.TaskRepository
	media  store.MediaRepository
	logger *zap.Logger
}

// NewService creates the ops service
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{
		tasks:  s.Task(),
		media:  s.Media(),
		logger: logger,
	}
}

// CreateTask appends a checklist item at the end of the list
func (s *Service) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// ListTasks returns the checklist in position order
func (s *Service) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.tasks.List(ctx)
}

// SetTaskDone toggles a checklist item
func (s *Service) SetTaskDone(ctx context.Context, id int64, done bool) error {
	if err := s.tasks.SetDone(ctx, id, done); err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return nil
}

// DeleteTask removes a checklist item
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

// CreateMediaBenefit records a media deliverable promised to a sponsor
func (s *Service) CreateMediaBenefit(ctx context.Context, benefit *models.MediaBenefit) error {
	if benefit.Channel == "" {
		return fmt.Errorf("media channel is required")
	}
	if err := s.media.Create(ctx, benefit); err != nil {
		return fmt.Errorf("failed to create media benefit: %w", err)
	}
	return nil
}

// MediaBenefits returns a guest's media deliverables
func (s *Service) MediaBenefits(ctx context.Context, guestID string) ([]models.MediaBenefit, error) {
	return s.media.GetByGuestID(ctx, guestID)
}

// SetMediaDelivered marks a deliverable done
func (s *Service) SetMediaDelivered(ctx context.Context, id int64, delivered bool) error {
	if err := s.media.SetDelivered(ctx, id, delivered); err != nil {
		return fmt.Errorf("failed to update media benefit %d: %w", id, err)
	}
	return nil
}
