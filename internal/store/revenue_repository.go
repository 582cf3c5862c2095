package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RevenueRepository is the interface for revenue records
type RevenueRepository interface {
	Create(ctx context.Context, rev *models.RevenueRecord) error
	GetByGuestID(ctx context.Context, guestID string) (*models.RevenueRecord, error)
	UpdateSponsorship(ctx context.Context, guestID string, sponsorship decimal.Decimal, paymentSource string) error
	// ApplyUpsale atomically snapshots the current revenue state into an
	// upsale event, then raises the sponsorship and sets the upsale flag.
	// One transaction, so the snapshot and the update cannot diverge.
	ApplyUpsale(ctx context.Context, guestID string, newSponsorship decimal.Decimal, newSource string, billImageURL, agentID *string) (*models.UpsaleEvent, error)
}

// revenueRepository implements RevenueRepository for PostgreSQL
type revenueRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewRevenueRepository creates a new revenue record repository
func NewRevenueRepository(db *pgxpool.Pool, logger *zap.Logger) RevenueRepository {
	return &revenueRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the guest's revenue record, normally at registration from
// role defaults
func (r *revenueRepository) Create(ctx context.Context, rev *models.RevenueRecord) error {
	query := `
		INSERT INTO revenue_records (guest_id, sponsorship, payment_source, is_upsaled, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if rev.Sponsorship.IsNegative() {
		return fmt.Errorf("sponsorship must be non-negative, got %s", rev.Sponsorship)
	}

	rev.UpdatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		rev.GuestID, rev.Sponsorship, rev.PaymentSource, rev.IsUpsaled, rev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create revenue record: %w", err)
	}

	r.logger.Info("revenue record created",
		zap.String("guest_id", rev.GuestID),
		zap.String("sponsorship", rev.Sponsorship.String()),
		zap.String("payment_source", rev.PaymentSource))

	return nil
}

// GetByGuestID fetches the guest's revenue record. Absence is reported as
// ErrNotFound; the service layer treats that as zero sponsorship.
func (r *revenueRepository) GetByGuestID(ctx context.Context, guestID string) (*models.RevenueRecord, error) {
	query := `
		SELECT guest_id, sponsorship, payment_source, is_upsaled, updated_at
		FROM revenue_records WHERE guest_id = $1`

	rev := &models.RevenueRecord{}
	err := r.db.QueryRow(ctx, query, guestID).Scan(
		&rev.GuestID, &rev.Sponsorship, &rev.PaymentSource, &rev.IsUpsaled, &rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("revenue record for guest %s: %w", guestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get revenue record: %w", err)
	}

	return rev, nil
}

// UpdateSponsorship edits the committed amount outside the upsale workflow
func (r *revenueRepository) UpdateSponsorship(ctx context.Context, guestID string, sponsorship decimal.Decimal, paymentSource string) error {
	query := `
		UPDATE revenue_records
		SET sponsorship = $2, payment_source = $3, updated_at = $4
		WHERE guest_id = $1`

	if sponsorship.IsNegative() {
		return fmt.Errorf("sponsorship must be non-negative, got %s", sponsorship)
	}

	result, err := r.db.Exec(ctx, query, guestID, sponsorship, paymentSource, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update sponsorship: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("revenue record for guest %s: %w", guestID, ErrNotFound)
	}

	r.logger.Info("sponsorship updated",
		zap.String("guest_id", guestID),
		zap.String("sponsorship", sponsorship.String()))

	return nil
}

// ApplyUpsale runs the upsale workflow in one transaction
func (r *revenueRepository) ApplyUpsale(ctx context.Context, guestID string, newSponsorship decimal.Decimal, newSource string, billImageURL, agentID *string) (*models.UpsaleEvent, error) {
	if newSponsorship.IsNegative() {
		return nil, fmt.Errorf("sponsorship must be non-negative, got %s", newSponsorship)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin upsale transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	prior := &models.RevenueRecord{}
	err = tx.QueryRow(ctx, `
		SELECT guest_id, sponsorship, payment_source, is_upsaled, updated_at
		FROM revenue_records WHERE guest_id = $1 FOR UPDATE`, guestID).Scan(
		&prior.GuestID, &prior.Sponsorship, &prior.PaymentSource, &prior.IsUpsaled, &prior.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("revenue record for guest %s: %w", guestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock revenue record: %w", err)
	}

	event := &models.UpsaleEvent{
		GuestID:           guestID,
		FromSponsorship:   prior.Sponsorship,
		FromPaymentSource: prior.PaymentSource,
		BillImageURL:      billImageURL,
		AgentID:           agentID,
		CreatedAt:         time.Now(),
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO upsale_events (guest_id, from_sponsorship, from_payment_source, bill_image_url, agent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		event.GuestID, event.FromSponsorship, event.FromPaymentSource,
		event.BillImageURL, event.AgentID, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert upsale event: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE revenue_records
		SET sponsorship = $2, payment_source = $3, is_upsaled = TRUE, updated_at = $4
		WHERE guest_id = $1`,
		guestID, newSponsorship, newSource, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update revenue record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit upsale: %w", err)
	}

	r.logger.Info("upsale applied",
		zap.String("guest_id", guestID),
		zap.String("from_sponsorship", event.FromSponsorship.String()),
		zap.String("to_sponsorship", newSponsorship.String()),
		zap.String("from_payment_source", event.FromPaymentSource))

	return event, nil
}
