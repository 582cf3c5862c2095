package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gala-ops/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound marks the well-known "no row" case. Callers that treat absence
// as a domain value (a guest without a revenue record means zero sponsorship)
// test for it with errors.Is; anything else is a store error and propagates.
var ErrNotFound = errors.New("record not found")

// Store is the access point to the ledger database
type Store interface {
	Guest() GuestRepository
	Revenue() RevenueRepository
	Upsale() UpsaleRepository
	Payment() PaymentRepository
	Service() ServiceRepository
	Commission() CommissionRepository
	Task() TaskRepository
	Media() MediaRepository
	DB() *pgxpool.Pool
	Close() error
}

// store implements the Store interface
type store struct {
	db         *pgxpool.Pool
	logger     *zap.Logger
	guest      GuestRepository
	revenue    RevenueRepository
	upsale     UpsaleRepository
	payment    PaymentRepository
	service    ServiceRepository
	commission CommissionRepository
	task       TaskRepository
	media      MediaRepository
}

// NewStore opens the database connection pool and wires the repositories
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("connected to PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	s.guest = NewGuestRepository(db, logger)
	s.revenue = NewRevenueRepository(db, logger)
	s.upsale = NewUpsaleRepository(db, logger)
	s.payment = NewPaymentRepository(db, logger)
	s.service = NewServiceRepository(db, logger)
	s.commission = NewCommissionRepository(db, logger)
	s.task = NewTaskRepository(db, logger)
	s.media = NewMediaRepository(db, logger)

	return s, nil
}

// Guest returns the guest repository
func (s *store) Guest() GuestRepository {
	return s.guest
}

// Revenue returns the revenue record repository
func (s *store) Revenue() RevenueRepository {
	return s.revenue
}

// Upsale returns the upsale event repository
func (s *store) Upsale() UpsaleRepository {
	return s.upsale
}

// Payment returns the sponsorship payment repository
func (s *store) Payment() PaymentRepository {
	return s.payment
}

// Service returns the service sale repository
func (s *store) Service() ServiceRepository {
	return s.service
}

// Commission returns the commission summary repository
func (s *store) Commission() CommissionRepository {
	return s.commission
}

// Task returns the checklist task repository
func (s *store) Task() TaskRepository {
	return s.task
}

// Media returns the media benefit repository
func (s *store) Media() MediaRepository {
	return s.media
}

// DB returns the underlying connection pool
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close closes the database connection pool
func (s *store) Close() error {
	s.logger.Info("closing database connection")
	s.db.Close()
	return nil
}
