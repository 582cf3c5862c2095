package store

import (
	"context"
	"fmt"
	"time"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TaskRepository is the interface for the event-day checklist
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	List(ctx context.Context) ([]models.Task, error)
	SetDone(ctx context.Context, id int64, done bool) error
	Delete(ctx context.Context, id int64) error
}

// taskRepository implements TaskRepository for PostgreSQL
type taskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewTaskRepository creates a new checklist task repository
func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) TaskRepository {
	return &taskRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a checklist task at the end of the list
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, assignee, done, position, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) + 1 FROM tasks), 0), $4, $5)
		RETURNING id, position`

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := r.db.QueryRow(ctx, query,
		task.Title, task.Assignee, task.Done, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.Position)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info("task created", zap.Int64("task_id", task.ID), zap.String("title", task.Title))
	return nil
}

// List returns the checklist in display order
func (r *taskRepository) List(ctx context.Context) ([]models.Task, error) {
	query := `
		SELECT id, title, assignee, done, position, created_at, updated_at
		FROM tasks
		ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err := rows.Scan(
			&task.ID, &task.Title, &task.Assignee, &task.Done,
			&task.Position, &task.CreatedAt, &task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// SetDone toggles a task's completion flag
func (r *taskRepository) SetDone(ctx context.Context, id int64, done bool) error {
	query := `UPDATE tasks SET done = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, done, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	return nil
}

// Delete removes a checklist task
func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	return nil
}

// MediaRepository is the interface for sponsor media benefits
type MediaRepository interface {
	Create(ctx context.Context, benefit *models.MediaBenefit) error
	GetByGuestID(ctx context.Context, guestID string) ([]models.MediaBenefit, error)
	SetDelivered(ctx context.Context, id int64, delivered bool) error
}

// mediaRepository implements MediaRepository for PostgreSQL
type mediaRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMediaRepository creates a new media benefit repository
func NewMediaRepository(db *pgxpool.Pool, logger *zap.Logger) MediaRepository {
	return &mediaRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a promised media deliverable for a sponsor
func (r *mediaRepository) Create(ctx context.Context, benefit *models.MediaBenefit) error {
	query := `
		INSERT INTO media_benefits (guest_id, channel, description, delivered, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	benefit.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		benefit.GuestID, benefit.Channel, benefit.Description, benefit.Delivered, benefit.CreatedAt,
	).Scan(&benefit.ID)
	if err != nil {
		return fmt.Errorf("failed to create media benefit: %w", err)
	}

	r.logger.Info("media benefit created",
		zap.String("guest_id", benefit.GuestID),
		zap.String("channel", benefit.Channel))
	return nil
}

// GetByGuestID returns the guest's media benefits
func (r *mediaRepository) GetByGuestID(ctx context.Context, guestID string) ([]models.MediaBenefit, error) {
	query := `
		SELECT id, guest_id, channel, description, delivered, created_at
		FROM media_benefits
		WHERE guest_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get media benefits: %w", err)
	}
	defer rows.Close()

	var benefits []models.MediaBenefit
	for rows.Next() {
		var benefit models.MediaBenefit
		err := rows.Scan(
			&benefit.ID, &benefit.GuestID, &benefit.Channel,
			&benefit.Description, &benefit.Delivered, &benefit.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media benefit: %w", err)
		}
		benefits = append(benefits, benefit)
	}

	return benefits, nil
}

// SetDelivered toggles a media benefit's delivered flag
func (r *mediaRepository) SetDelivered(ctx context.Context, id int64, delivered bool) error {
	query := `UPDATE media_benefits SET delivered = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, delivered)
	if err != nil {
		return fmt.Errorf("failed to update media benefit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("media benefit %d: %w", id, ErrNotFound)
	}

	return nil
}
