package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// GuestFilter narrows guest listings. Zero values mean "no filter".
type GuestFilter struct {
	Search   string
	Category string
	Role     string
}

// GuestRepository is the interface for guest records
type GuestRepository interface {
	Create(ctx context.Context, guest *models.Guest) error
	GetByID(ctx context.Context, id string) (*models.Guest, error)
	List(ctx context.Context, filter GuestFilter) ([]*models.Guest, error)
	Update(ctx context.Context, guest *models.Guest) error
	SetCheckedIn(ctx context.Context, id string, at time.Time) error
	CountCheckedIn(ctx context.Context) (int, error)
}

// guestRepository implements GuestRepository for PostgreSQL
type guestRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewGuestRepository creates a new guest repository
func NewGuestRepository(db *pgxpool.Pool, logger *zap.Logger) GuestRepository {
	return &guestRepository{
		db:     db,
		logger: logger,
	}
}

const guestColumns = `id, name, role, category, referrer, avatar_url, checked_in_at, created_at, updated_at`

// Create inserts a new guest
func (r *guestRepository) Create(ctx context.Context, guest *models.Guest) error {
	query := `
		INSERT INTO guests (id, name, role, category, referrer, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	guest.CreatedAt = now
	guest.UpdatedAt = now

	if !models.IsValidCategory(guest.Category) {
		return fmt.Errorf("unknown guest category %q", guest.Category)
	}

	_, err := r.db.Exec(ctx, query,
		guest.ID, guest.Name, guest.Role, guest.Category,
		guest.Referrer, guest.AvatarURL, guest.CreatedAt, guest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create guest: %w", err)
	}

	r.logger.Info("guest created",
		zap.String("guest_id", guest.ID),
		zap.String("category", guest.Category),
		zap.String("role", guest.Role))

	return nil
}

// GetByID fetches one guest by id
func (r *guestRepository) GetByID(ctx context.Context, id string) (*models.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id = $1`

	guest := &models.Guest{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&guest.ID, &guest.Name, &guest.Role, &guest.Category, &guest.Referrer,
		&guest.AvatarURL, &guest.CheckedInAt, &guest.CreatedAt, &guest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("guest %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guest by id: %w", err)
	}

	return guest, nil
}

// List returns guests matching the filter, ordered by name
func (r *guestRepository) List(ctx context.Context, filter GuestFilter) ([]*models.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR id ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR role = $3)
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, filter.Search, filter.Category, filter.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	var guests []*models.Guest
	for rows.Next() {
		guest := &models.Guest{}
		err := rows.Scan(
			&guest.ID, &guest.Name, &guest.Role, &guest.Category, &guest.Referrer,
			&guest.AvatarURL, &guest.CheckedInAt, &guest.CreatedAt, &guest.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, guest)
	}

	return guests, nil
}

// Update updates the mutable guest fields
func (r *guestRepository) Update(ctx context.Context, guest *models.Guest) error {
	query := `
		UPDATE guests
		SET name = $2, role = $3, referrer = $4, avatar_url = $5, updated_at = $6
		WHERE id = $1`

	guest.UpdatedAt = time.Now()

	result, err := r.db.Exec(ctx, query,
		guest.ID, guest.Name, guest.Role, guest.Referrer, guest.AvatarURL, guest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guest %s: %w", guest.ID, ErrNotFound)
	}

	r.logger.Info("guest updated", zap.String("guest_id", guest.ID))
	return nil
}

// SetCheckedIn stamps the guest's arrival time
func (r *guestRepository) SetCheckedIn(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE guests SET checked_in_at = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, at, time.Now())
	if err != nil {
		return fmt.Errorf("failed to check in guest: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guest %s: %w", id, ErrNotFound)
	}

	r.logger.Info("guest checked in",
		zap.String("guest_id", id),
		zap.Time("checked_in_at", at))
	return nil
}

// CountCheckedIn counts guests who have arrived
func (r *guestRepository) CountCheckedIn(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM guests WHERE checked_in_at IS NOT NULL`

	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count checked-in guests: %w", err)
	}

	return count, nil
}
