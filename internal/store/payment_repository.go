package store

import (
	"context"
	"fmt"
	"time"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRepository is the interface for the sponsorship payment ledger.
// Entries are append-only; nothing here mutates or deletes.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.PaymentRecord) error
	GetByGuestID(ctx context.Context, guestID string) ([]models.PaymentRecord, error)
	SumByGuestID(ctx context.Context, guestID string) (decimal.Decimal, error)
}

// paymentRepository implements PaymentRepository for PostgreSQL
type paymentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment ledger repository
func NewPaymentRepository(db *pgxpool.Pool, logger *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one payment against the guest's sponsorship
func (r *paymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (guest_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if !payment.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive, got %s", payment.Amount)
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(ctx, query,
		payment.GuestID, payment.Amount, payment.Note, payment.CreatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	r.logger.Info("payment recorded",
		zap.String("guest_id", payment.GuestID),
		zap.String("amount", payment.Amount.String()))

	return nil
}

// GetByGuestID returns the guest's payments ordered newest first
func (r *paymentRepository) GetByGuestID(ctx context.Context, guestID string) ([]models.PaymentRecord, error) {
	query := `
		SELECT id, guest_id, amount, note, created_at
		FROM payment_records
		WHERE guest_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment records: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRecord
	for rows.Next() {
		var payment models.PaymentRecord
		err := rows.Scan(
			&payment.ID, &payment.GuestID, &payment.Amount, &payment.Note, &payment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

// SumByGuestID returns the guest's total paid amount against sponsorship
func (r *paymentRepository) SumByGuestID(ctx context.Context, guestID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payment_records WHERE guest_id = $1`

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, guestID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payment records: %w", err)
	}

	return total, nil
}
