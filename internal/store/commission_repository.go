package store

import (
	"context"
	"fmt"

	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CommissionRepository reads the server-computed commission summaries. The
// aggregation lives entirely in SQL; rows pass through to presentation
// unchanged and nothing here is recomputed in Go.
type CommissionRepository interface {
	ByReferrer(ctx context.Context) ([]models.CommissionRow, error)
	ByUpsaleAgent(ctx context.Context) ([]models.CommissionRow, error)
	ByServiceSeller(ctx context.Context) ([]models.CommissionRow, error)
}

// commissionRepository implements CommissionRepository for PostgreSQL
type commissionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewCommissionRepository creates a new commission summary repository
func NewCommissionRepository(db *pgxpool.Pool, logger *zap.Logger) CommissionRepository {
	return &commissionRepository{
		db:     db,
		logger: logger,
	}
}

// ByReferrer summarizes referred guests per referrer
func (r *commissionRepository) ByReferrer(ctx context.Context) ([]models.CommissionRow, error) {
	query := `
		SELECT g.referrer AS name,
		       COUNT(*) AS count,
		       COALESCE(SUM(rr.sponsorship), 0) AS total,
		       COALESCE(SUM(pp.paid), 0) AS total_paid
		FROM guests g
		JOIN revenue_records rr ON rr.guest_id = g.id
		LEFT JOIN (
			SELECT guest_id, SUM(amount) AS paid
			FROM payment_records
			GROUP BY guest_id
		) pp ON pp.guest_id = g.id
		WHERE g.referrer <> ''
		GROUP BY g.referrer
		ORDER BY total DESC`

	return r.queryRows(ctx, query, "referrer")
}

// ByUpsaleAgent summarizes upsale gains per closing agent
func (r *commissionRepository) ByUpsaleAgent(ctx context.Context) ([]models.CommissionRow, error) {
	query := `
		SELECT u.agent_id AS name,
		       COUNT(*) AS count,
		       COALESCE(SUM(rr.sponsorship - u.from_sponsorship), 0) AS total,
		       COALESCE(SUM(pp.paid), 0) AS total_paid
		FROM upsale_events u
		JOIN revenue_records rr ON rr.guest_id = u.guest_id
		LEFT JOIN (
			SELECT guest_id, SUM(amount) AS paid
			FROM payment_records
			GROUP BY guest_id
		) pp ON pp.guest_id = u.guest_id
		WHERE u.agent_id IS NOT NULL
		GROUP BY u.agent_id
		ORDER BY total DESC`

	return r.queryRows(ctx, query, "upsale_agent")
}

// ByServiceSeller summarizes service sales per selling referrer
func (r *commissionRepository) ByServiceSeller(ctx context.Context) ([]models.CommissionRow, error) {
	query := `
		SELECT s.referrer_id AS name,
		       COUNT(*) AS count,
		       COALESCE(SUM(s.price), 0) AS total,
		       COALESCE(SUM(s.paid_amount), 0) AS total_paid
		FROM service_sales s
		WHERE s.referrer_id IS NOT NULL AND s.status <> $1
		GROUP BY s.referrer_id
		ORDER BY total DESC`

	return r.queryRows(ctx, query, "service_seller", models.ServiceStatusCancelled)
}

func (r *commissionRepository) queryRows(ctx context.Context, query, kind string, args ...any) ([]models.CommissionRow, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s commissions: %w", kind, err)
	}
	defer rows.Close()

	summaries, err := scanCommissionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s commissions: %w", kind, err)
	}

	r.logger.Debug("commission summary loaded",
		zap.String("kind", kind),
		zap.Int("rows", len(summaries)))

	return summaries, nil
}

func scanCommissionRows(rows pgx.Rows) ([]models.CommissionRow, error) {
	var summaries []models.CommissionRow
	for rows.Next() {
		var row models.CommissionRow
		if err := rows.Scan(&row.Name, &row.Count, &row.Total, &row.TotalPaid); err != nil {
			return nil, err
		}
		summaries = append(summaries, row)
	}
	return summaries, rows.Err()
}
