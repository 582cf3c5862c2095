package store

import (
	"context"
	"fmt"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// UpsaleRepository reads the append-only upsale history. Writes happen only
// through RevenueRepository.ApplyUpsale so the snapshot and the record update
// stay in one transaction.
type UpsaleRepository interface {
	GetByGuestID(ctx context.Context, guestID string) ([]models.UpsaleEvent, error)
	CountByGuestID(ctx context.Context, guestID string) (int, error)
}

// upsaleRepository implements UpsaleRepository for PostgreSQL
type upsaleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewUpsaleRepository creates a new upsale event repository
func NewUpsaleRepository(db *pgxpool.Pool, logger *zap.Logger) UpsaleRepository {
	return &upsaleRepository{
		db:     db,
		logger: logger,
	}
}

// GetByGuestID returns the guest's upsale events ordered oldest first
func (r *upsaleRepository) GetByGuestID(ctx context.Context, guestID string) ([]models.UpsaleEvent, error) {
	query := `
		SELECT id, guest_id, from_sponsorship, from_payment_source, bill_image_url, agent_id, created_at
		FROM upsale_events
		WHERE guest_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get upsale events: %w", err)
	}
	defer rows.Close()

	var events []models.UpsaleEvent
	for rows.Next() {
		var event models.UpsaleEvent
		err := rows.Scan(
			&event.ID, &event.GuestID, &event.FromSponsorship, &event.FromPaymentSource,
			&event.BillImageURL, &event.AgentID, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upsale event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}

// CountByGuestID counts the guest's upsale events
func (r *upsaleRepository) CountByGuestID(ctx context.Context, guestID string) (int, error) {
	query := `SELECT COUNT(*) FROM upsale_events WHERE guest_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, guestID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count upsale events: %w", err)
	}

	return count, nil
}
