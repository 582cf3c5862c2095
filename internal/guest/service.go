// Package guest orchestrates the revenue engine against the ledger store:
// every screen-facing summary, history feed and financial mutation goes
// through this service, so the business rules live in exactly one place.
package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gala-ops/internal/history"
	"gala-ops/internal/notify"
	"gala-ops/internal/revenue"
	"gala-ops/internal/store"
	"gala-ops/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrOverpayment rejects a payment capture exceeding the guest's unpaid
// balance. Captures are serialized per guest, so two racing operators cannot
// both slip past this check.
var ErrOverpayment = errors.New("payment exceeds unpaid balance")

// SummaryCache is the read-through cache contract. A nil cache disables
// caching; every read recomputes.
type SummaryCache interface {
	GetSummary(ctx context.Context, guestID string) (*models.EffectiveRevenueSummary, bool)
	SetSummary(ctx context.Context, guestID string, summary *models.EffectiveRevenueSummary)
	GetPortfolio(ctx context.Context, filterKey string) (*models.PortfolioTotals, bool)
	SetPortfolio(ctx context.Context, filterKey string, totals *models.PortfolioTotals)
	InvalidateGuest(ctx context.Context, guestID string)
}

// Metrics is the subset of application metrics the service records
type Metrics interface {
	RecordSummaryCompute(scope string, seconds float64)
	RecordPaymentCapture(kind, status string)
	RecordUpsale()
	RecordAnomaly(kind string)
	RecordStoreError(operation string)
	RecordCacheLookup(result string)
	RecordCheckin(totalCheckedIn int)
}

// Service wires the revenue engine, the ledger repositories, the cache and
// the per-guest mutation lock
type Service struct {
	guests   store.GuestRepository
	revenues store.RevenueRepository
	upsales  store.UpsaleRepository
	payments store.PaymentRepository
	services store.ServiceRepository
	cache    SummaryCache
	locker   Locker
	metrics  Metrics
	notifier *notify.Notifier
	logger   *zap.Logger
}

// NewService creates the guest service
func NewService(
	s store.Store,
	cache SummaryCache,
	locker Locker,
	metrics Metrics,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		guests:   s.Guest(),
		revenues: s.Revenue(),
		upsales:  s.Upsale(),
		payments: s.Payment(),
		services: s.Service(),
		cache:    cache,
		locker:   locker,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates a guest together with its revenue record, seeded from the
// role default
func (s *Service) Register(ctx context.Context, guest *models.Guest, sponsorship decimal.Decimal, paymentSource string) error {
	if err := s.guests.Create(ctx, guest); err != nil {
		return fmt.Errorf("failed to register guest: %w", err)
	}

	rev := &models.RevenueRecord{
		GuestID:       guest.ID,
		Sponsorship:   sponsorship,
		PaymentSource: paymentSource,
	}
	if err := s.revenues.Create(ctx, rev); err != nil {
		return fmt.Errorf("guest %s registered without revenue record: %w", guest.ID, err)
	}

	return nil
}

// records bundles everything the engine needs for one guest
type records struct {
	guest    *models.Guest
	revenue  models.RevenueRecord
	upsales  []models.UpsaleEvent
	payments []models.PaymentRecord
	sales    []models.ServiceSale
}

// fetchRecords loads one guest's financial records. A missing revenue record
// is zero sponsorship, not an error; everything else propagates.
func (s *Service) fetchRecords(ctx context.Context, guestID string) (*records, error) {
	guest, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		s.metrics.RecordStoreError("get_guest")
		return nil, err
	}

	rec := &records{guest: guest}

	rev, err := s.revenues.GetByGuestID(ctx, guestID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordStoreError("get_revenue")
			return nil, err
		}
		rec.revenue = models.RevenueRecord{GuestID: guestID, Sponsorship: decimal.Zero}
	} else {
		rec.revenue = *rev
	}

	if rec.upsales, err = s.upsales.GetByGuestID(ctx, guestID); err != nil {
		s.metrics.RecordStoreError("get_upsales")
		return nil, err
	}
	if rec.payments, err = s.payments.GetByGuestID(ctx, guestID); err != nil {
		s.metrics.RecordStoreError("get_payments")
		return nil, err
	}
	if rec.sales, err = s.services.GetSalesByGuestID(ctx, guestID); err != nil {
		s.metrics.RecordStoreError("get_service_sales")
		return nil, err
	}

	return rec, nil
}

// compute runs the engine over fetched records and flags anomalies
func (s *Service) compute(rec *records) models.EffectiveRevenueSummary {
	summary := revenue.Summarize(rec.revenue, rec.guest.Referrer, rec.upsales, rec.payments, rec.sales)

	if rec.revenue.IsUpsaled && len(rec.upsales) == 0 {
		s.metrics.RecordAnomaly("flag_without_evidence")
		s.logger.Warn("upsale flag set without upsale history",
			zap.String("guest_id", rec.guest.ID))
	}
	if summary.Effective.IsNegative() {
		s.metrics.RecordAnomaly("negative_effective")
		s.logger.Warn("effective sponsorship is negative",
			zap.String("guest_id", rec.guest.ID),
			zap.String("effective", summary.Effective.String()))
		s.notifier.AnomalyAlert(rec.guest.ID, "negative_effective", summary.Effective.String())
	}
	if summary.TotalUnpaid.IsNegative() {
		s.metrics.RecordAnomaly("negative_unpaid")
		s.logger.Warn("unpaid balance is negative",
			zap.String("guest_id", rec.guest.ID),
			zap.String("total_unpaid", summary.TotalUnpaid.String()))
	}

	return summary
}

// Summary returns the guest's effective revenue summary, read-through cached
func (s *Service) Summary(ctx context.Context, guestID string) (*models.EffectiveRevenueSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetSummary(ctx, guestID); ok {
			s.metrics.RecordCacheLookup("hit")
			return cached, nil
		}
		s.metrics.RecordCacheLookup("miss")
	}

	started := time.Now()
	rec, err := s.fetchRecords(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for guest %s: %w", guestID, err)
	}

	summary := s.compute(rec)
	s.metrics.RecordSummaryCompute("guest", time.Since(started).Seconds())

	if s.cache != nil {
		s.cache.SetSummary(ctx, guestID, &summary)
	}

	return &summary, nil
}

// PortfolioSummary folds all guests matching the filter into dashboard totals
func (s *Service) PortfolioSummary(ctx context.Context, filter store.GuestFilter) (*models.PortfolioTotals, error) {
	filterKey := fmt.Sprintf("%s|%s|%s", filter.Search, filter.Category, filter.Role)

	if s.cache != nil {
		if cached, ok := s.cache.GetPortfolio(ctx, filterKey); ok {
			s.metrics.RecordCacheLookup("hit")
			return cached, nil
		}
		s.metrics.RecordCacheLookup("miss")
	}

	guests, err := s.guests.List(ctx, filter)
	if err != nil {
		s.metrics.RecordStoreError("list_guests")
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}

	summaries := make([]models.EffectiveRevenueSummary, 0, len(guests))
	for _, g := range guests {
		rec, err := s.fetchRecords(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load records for guest %s: %w", g.ID, err)
		}
		summaries = append(summaries, s.compute(rec))
	}

	totals := revenue.ReducePortfolio(summaries)
	s.metrics.RecordSummaryCompute("portfolio", 0)

	if s.cache != nil {
		s.cache.SetPortfolio(ctx, filterKey, &totals)
	}

	return &totals, nil
}

// History returns the guest's merged financial feed, newest first
func (s *Service) History(ctx context.Context, guestID string) ([]models.HistoryItem, error) {
	rec, err := s.fetchRecords(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for guest %s: %w", guestID, err)
	}

	servicePayments, err := s.services.GetPaymentsByGuestID(ctx, guestID)
	if err != nil {
		s.metrics.RecordStoreError("get_service_payments")
		return nil, fmt.Errorf("failed to load service payments for guest %s: %w", guestID, err)
	}

	return history.Merge(rec.upsales, rec.payments, rec.sales, servicePayments), nil
}

// ProofOfPayment returns the guest's current bill image: the newest upsale
// event that carries one
func (s *Service) ProofOfPayment(ctx context.Context, guestID string) (string, bool, error) {
	upsales, err := s.upsales.GetByGuestID(ctx, guestID)
	if err != nil {
		s.metrics.RecordStoreError("get_upsales")
		return "", false, fmt.Errorf("failed to load upsale history for guest %s: %w", guestID, err)
	}

	url, ok := history.LatestBillImage(upsales)
	return url, ok, nil
}

// CapturePayment appends a sponsorship payment under the per-guest lock.
// The unpaid balance is re-read inside the lock, so concurrent captures
// cannot both pass the overpayment check on the same stale value.
func (s *Service) CapturePayment(ctx context.Context, guestID string, amount decimal.Decimal, note string) (*models.PaymentRecord, error) {
	if !amount.IsPositive() {
		s.metrics.RecordPaymentCapture("sponsorship", "rejected")
		return nil, fmt.Errorf("payment amount must be positive, got %s", amount)
	}

	unlock, err := s.lockGuest(ctx, guestID)
	if err != nil {
		s.metrics.RecordPaymentCapture("sponsorship", "failed")
		return nil, err
	}
	defer unlock()

	rec, err := s.fetchRecords(ctx, guestID)
	if err != nil {
		s.metrics.RecordPaymentCapture("sponsorship", "failed")
		return nil, fmt.Errorf("failed to load records for guest %s: %w", guestID, err)
	}

	summary := s.compute(rec)
	if amount.GreaterThan(summary.TotalUnpaid) {
		s.metrics.RecordPaymentCapture("sponsorship", "rejected")
		s.notifier.AnomalyAlert(guestID, "overpayment_rejected",
			fmt.Sprintf("attempted %s with %s unpaid", amount, summary.TotalUnpaid))
		return nil, fmt.Errorf("capture of %s with %s unpaid: %w", amount, summary.TotalUnpaid, ErrOverpayment)
	}

	payment := &models.PaymentRecord{
		GuestID: guestID,
		Amount:  amount,
		Note:    note,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.metrics.RecordPaymentCapture("sponsorship", "failed")
		s.metrics.RecordStoreError("create_payment")
		return nil, fmt.Errorf("failed to capture payment: %w", err)
	}

	s.metrics.RecordPaymentCapture("sponsorship", "ok")
	if s.cache != nil {
		s.cache.InvalidateGuest(ctx, guestID)
	}

	return payment, nil
}

// CaptureServicePayment appends a service payment under the per-guest lock
func (s *Service) CaptureServicePayment(ctx context.Context, saleID int64, amount decimal.Decimal, billImageURL *string) (*models.ServicePaymentRecord, error) {
	sale, err := s.services.GetSaleByID(ctx, saleID)
	if err != nil {
		s.metrics.RecordPaymentCapture("service", "failed")
		return nil, fmt.Errorf("failed to load service sale %d: %w", saleID, err)
	}

	unlock, err := s.lockGuest(ctx, sale.GuestID)
	if err != nil {
		s.metrics.RecordPaymentCapture("service", "failed")
		return nil, err
	}
	defer unlock()

	// Re-read inside the lock; Outstanding may have moved.
	sale, err = s.services.GetSaleByID(ctx, saleID)
	if err != nil {
		s.metrics.RecordPaymentCapture("service", "failed")
		return nil, fmt.Errorf("failed to reload service sale %d: %w", saleID, err)
	}

	if amount.GreaterThan(sale.Outstanding()) {
		s.metrics.RecordPaymentCapture("service", "rejected")
		return nil, fmt.Errorf("capture of %s with %s outstanding on sale %d: %w",
			amount, sale.Outstanding(), saleID, ErrOverpayment)
	}

	payment := &models.ServicePaymentRecord{
		GuestServiceID: saleID,
		Amount:         amount,
		BillImageURL:   billImageURL,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.services.CapturePayment(ctx, payment); err != nil {
		s.metrics.RecordPaymentCapture("service", "failed")
		s.metrics.RecordStoreError("create_service_payment")
		return nil, fmt.Errorf("failed to capture service payment: %w", err)
	}

	s.metrics.RecordPaymentCapture("service", "ok")
	if s.cache != nil {
		s.cache.InvalidateGuest(ctx, sale.GuestID)
	}

	return payment, nil
}

// CreateServiceSale records an add-on service purchase for a guest
func (s *Service) CreateServiceSale(ctx context.Context, sale *models.ServiceSale) error {
	if _, err := s.guests.GetByID(ctx, sale.GuestID); err != nil {
		return fmt.Errorf("failed to load guest %s: %w", sale.GuestID, err)
	}
	if sale.Status == "" {
		sale.Status = models.ServiceStatusPending
	}

	if err := s.services.CreateSale(ctx, sale); err != nil {
		s.metrics.RecordStoreError("create_service_sale")
		return fmt.Errorf("failed to create service sale: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateGuest(ctx, sale.GuestID)
	}

	return nil
}

// RecordUpsale runs the upsale workflow: snapshot, raise, flag, all in one
// store transaction
func (s *Service) RecordUpsale(ctx context.Context, guestID string, newSponsorship decimal.Decimal, newSource string, billImageURL, agentID *string) (*models.UpsaleEvent, error) {
	unlock, err := s.lockGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	event, err := s.revenues.ApplyUpsale(ctx, guestID, newSponsorship, newSource, billImageURL, agentID)
	if err != nil {
		s.metrics.RecordStoreError("apply_upsale")
		return nil, fmt.Errorf("failed to record upsale for guest %s: %w", guestID, err)
	}

	s.metrics.RecordUpsale()
	if s.cache != nil {
		s.cache.InvalidateGuest(ctx, guestID)
	}

	// Surface a shrinking top line right away instead of waiting for the
	// next summary read.
	if event.FromPaymentSource == models.PaymentSourceQuota && event.FromSponsorship.GreaterThan(newSponsorship) {
		s.metrics.RecordAnomaly("negative_effective")
		s.notifier.AnomalyAlert(guestID, "negative_effective",
			fmt.Sprintf("upsale to %s below quota snapshot %s", newSponsorship, event.FromSponsorship))
	}

	return event, nil
}

// EditSponsorship changes the committed amount outside the upsale workflow
func (s *Service) EditSponsorship(ctx context.Context, guestID string, sponsorship decimal.Decimal, paymentSource string) error {
	unlock, err := s.lockGuest(ctx, guestID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.revenues.UpdateSponsorship(ctx, guestID, sponsorship, paymentSource); err != nil {
		s.metrics.RecordStoreError("update_sponsorship")
		return fmt.Errorf("failed to edit sponsorship for guest %s: %w", guestID, err)
	}

	if s.cache != nil {
		s.cache.InvalidateGuest(ctx, guestID)
	}

	return nil
}

// CheckIn stamps the guest's arrival
func (s *Service) CheckIn(ctx context.Context, guestID string) error {
	if err := s.guests.SetCheckedIn(ctx, guestID, time.Now()); err != nil {
		s.metrics.RecordStoreError("check_in")
		return fmt.Errorf("failed to check in guest %s: %w", guestID, err)
	}

	count, err := s.guests.CountCheckedIn(ctx)
	if err != nil {
		// The check-in itself succeeded; leave the gauge at its last known
		// value rather than publishing a wrong zero.
		s.logger.Warn("failed to count checked-in guests", zap.Error(err))
		return nil
	}
	s.metrics.RecordCheckin(count)

	return nil
}

// Get returns the guest record
func (s *Service) Get(ctx context.Context, guestID string) (*models.Guest, error) {
	return s.guests.GetByID(ctx, guestID)
}

// List returns guests matching the filter
func (s *Service) List(ctx context.Context, filter store.GuestFilter) ([]*models.Guest, error) {
	return s.guests.List(ctx, filter)
}
