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

// ServiceRepository is the interface for service sales and their payment
// ledger. A service payment and the paid_amount bump on the sale commit in
// one transaction.
type ServiceRepository interface {
	CreateSale(ctx context.Context, sale *models.ServiceSale) error
	GetSalesByGuestID(ctx context.Context, guestID string) ([]models.ServiceSale, error)
	GetSaleByID(ctx context.Context, id int64) (*models.ServiceSale, error)
	CapturePayment(ctx context.Context, payment *models.ServicePaymentRecord) error
	GetPaymentsByGuestID(ctx context.Context, guestID string) ([]models.ServicePaymentRecord, error)
}

// serviceRepository implements ServiceRepository for PostgreSQL
type serviceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewServiceRepository creates a new service sale repository
func NewServiceRepository(db *pgxpool.Pool, logger *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:     db,
		logger: logger,
	}
}

// CreateSale inserts a new service sale for a guest
func (r *serviceRepository) CreateSale(ctx context.Context, sale *models.ServiceSale) error {
	query := `
		INSERT INTO service_sales (guest_id, service_id, service_name, price, paid_amount, status, notes, referrer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	if sale.Status == "" {
		sale.Status = models.ServiceStatusPending
	}
	sale.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		sale.GuestID, sale.ServiceID, sale.ServiceName, sale.Price, sale.PaidAmount,
		sale.Status, sale.Notes, sale.ReferrerID, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return fmt.Errorf("failed to create service sale: %w", err)
	}

	r.logger.Info("service sale created",
		zap.String("guest_id", sale.GuestID),
		zap.String("service_name", sale.ServiceName),
		zap.String("price", sale.Price.String()))

	return nil
}

// GetSalesByGuestID returns the guest's service sales
func (r *serviceRepository) GetSalesByGuestID(ctx context.Context, guestID string) ([]models.ServiceSale, error) {
	query := `
		SELECT id, guest_id, service_id, service_name, price, paid_amount, status, notes, referrer_id, created_at
		FROM service_sales
		WHERE guest_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service sales: %w", err)
	}
	defer rows.Close()

	return scanServiceSales(rows)
}

// GetSaleByID fetches one service sale
func (r *serviceRepository) GetSaleByID(ctx context.Context, id int64) (*models.ServiceSale, error) {
	query := `
		SELECT id, guest_id, service_id, service_name, price, paid_amount, status, notes, referrer_id, created_at
		FROM service_sales WHERE id = $1`

	sale := &models.ServiceSale{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sale.ID, &sale.GuestID, &sale.ServiceID, &sale.ServiceName, &sale.Price,
		&sale.PaidAmount, &sale.Status, &sale.Notes, &sale.ReferrerID, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("service sale %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get service sale: %w", err)
	}

	return sale, nil
}

// CapturePayment appends a service payment and bumps the sale's paid_amount
// in one transaction. The idempotency key makes retries safe: a duplicate key
// is reported as already captured, not inserted twice.
func (r *serviceRepository) CapturePayment(ctx context.Context, payment *models.ServicePaymentRecord) error {
	if !payment.Amount.IsPositive() {
		return fmt.Errorf("service payment amount must be positive, got %s", payment.Amount)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin service payment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM service_payment_records WHERE idempotency_key = $1)`,
		payment.IdempotencyKey,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if exists {
		return fmt.Errorf("service payment %s already captured", payment.IdempotencyKey)
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO service_payment_records (guest_service_id, amount, bill_image_url, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		payment.GuestServiceID, payment.Amount, payment.BillImageURL,
		payment.IdempotencyKey, payment.CreatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert service payment: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE service_sales SET paid_amount = paid_amount + $2 WHERE id = $1`,
		payment.GuestServiceID, payment.Amount,
	)
	if err != nil {
		return fmt.Errorf("failed to update service sale paid amount: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service sale %d: %w", payment.GuestServiceID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit service payment: %w", err)
	}

	r.logger.Info("service payment captured",
		zap.Int64("guest_service_id", payment.GuestServiceID),
		zap.String("amount", payment.Amount.String()))

	return nil
}

// GetPaymentsByGuestID returns all service payments across the guest's sales
func (r *serviceRepository) GetPaymentsByGuestID(ctx context.Context, guestID string) ([]models.ServicePaymentRecord, error) {
	query := `
		SELECT p.id, p.guest_service_id, p.amount, p.bill_image_url, p.idempotency_key, p.created_at
		FROM service_payment_records p
		JOIN service_sales s ON s.id = p.guest_service_id
		WHERE s.guest_id = $1
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service payments: %w", err)
	}
	defer rows.Close()

	var payments []models.ServicePaymentRecord
	for rows.Next() {
		var payment models.ServicePaymentRecord
		err := rows.Scan(
			&payment.ID, &payment.GuestServiceID, &payment.Amount,
			&payment.BillImageURL, &payment.IdempotencyKey, &payment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func scanServiceSales(rows pgx.Rows) ([]models.ServiceSale, error) {
	var sales []models.ServiceSale
	for rows.Next() {
		var sale models.ServiceSale
		err := rows.Scan(
			&sale.ID, &sale.GuestID, &sale.ServiceID, &sale.ServiceName, &sale.Price,
			&sale.PaidAmount, &sale.Status, &sale.Notes, &sale.ReferrerID, &sale.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}
