package guest

import (
	"context"
	"errors"
	"testing"
	"time"

	"gala-ops/internal/store"
	"gala-ops/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ledger is the shared in-memory state behind the fake repositories
type ledger struct {
	guests          map[string]*models.Guest
	revenues        map[string]*models.RevenueRecord
	upsales         map[string][]models.UpsaleEvent
	payments        map[string][]models.PaymentRecord
	sales           map[int64]*models.ServiceSale
	servicePayments []models.ServicePaymentRecord

	countCheckedInErr error
}

func newLedger() *ledger {
	return &ledger{
		guests:   make(map[string]*models.Guest),
		revenues: make(map[string]*models.RevenueRecord),
		upsales:  make(map[string][]models.UpsaleEvent),
		payments: make(map[string][]models.PaymentRecord),
		sales:    make(map[int64]*models.ServiceSale),
	}
}

type fakeGuestRepo struct{ l *ledger }

func (r *fakeGuestRepo) Create(_ context.Context, g *models.Guest) error {
	r.l.guests[g.ID] = g
	return nil
}

func (r *fakeGuestRepo) GetByID(_ context.Context, id string) (*models.Guest, error) {
	g, ok := r.l.guests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}

func (r *fakeGuestRepo) List(_ context.Context, _ store.GuestFilter) ([]*models.Guest, error) {
	out := make([]*models.Guest, 0, len(r.l.guests))
	for _, g := range r.l.guests {
		out = append(out, g)
	}
	return out, nil
}

func (r *fakeGuestRepo) Update(_ context.Context, g *models.Guest) error {
	r.l.guests[g.ID] = g
	return nil
}

func (r *fakeGuestRepo) SetCheckedIn(_ context.Context, id string, at time.Time) error {
	g, ok := r.l.guests[id]
	if !ok {
		return store.ErrNotFound
	}
	g.CheckedInAt = &at
	return nil
}

func (r *fakeGuestRepo) CountCheckedIn(_ context.Context) (int, error) {
	if r.l.countCheckedInErr != nil {
		return 0, r.l.countCheckedInErr
	}
	n := 0
	for _, g := range r.l.guests {
		if g.CheckedInAt != nil {
			n++
		}
	}
	return n, nil
}

type fakeRevenueRepo struct{ l *ledger }

func (r *fakeRevenueRepo) Create(_ context.Context, rev *models.RevenueRecord) error {
	r.l.revenues[rev.GuestID] = rev
	return nil
}

func (r *fakeRevenueRepo) GetByGuestID(_ context.Context, guestID string) (*models.RevenueRecord, error) {
	rev, ok := r.l.revenues[guestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rev, nil
}

func (r *fakeRevenueRepo) UpdateSponsorship(_ context.Context, guestID string, sponsorship decimal.Decimal, paymentSource string) error {
	rev, ok := r.l.revenues[guestID]
	if !ok {
		return store.ErrNotFound
	}
	rev.Sponsorship = sponsorship
	rev.PaymentSource = paymentSource
	return nil
}

func (r *fakeRevenueRepo) ApplyUpsale(_ context.Context, guestID string, newSponsorship decimal.Decimal, newSource string, billImageURL, agentID *string) (*models.UpsaleEvent, error) {
	rev, ok := r.l.revenues[guestID]
	if !ok {
		return nil, store.ErrNotFound
	}

	event := models.UpsaleEvent{
		ID:                int64(len(r.l.upsales[guestID]) + 1),
		GuestID:           guestID,
		FromSponsorship:   rev.Sponsorship,
		FromPaymentSource: rev.PaymentSource,
		BillImageURL:      billImageURL,
		AgentID:           agentID,
		CreatedAt:         time.Now(),
	}
	r.l.upsales[guestID] = append(r.l.upsales[guestID], event)

	rev.Sponsorship = newSponsorship
	rev.PaymentSource = newSource
	rev.IsUpsaled = true

	return &event, nil
}

type fakeUpsaleRepo struct{ l *ledger }

func (r *fakeUpsaleRepo) GetByGuestID(_ context.Context, guestID string) ([]models.UpsaleEvent, error) {
	return r.l.upsales[guestID], nil
}

func (r *fakeUpsaleRepo) CountByGuestID(_ context.Context, guestID string) (int, error) {
	return len(r.l.upsales[guestID]), nil
}

type fakePaymentRepo struct{ l *ledger }

func (r *fakePaymentRepo) Create(_ context.Context, p *models.PaymentRecord) error {
	p.ID = int64(len(r.l.payments[p.GuestID]) + 1)
	p.CreatedAt = time.Now()
	r.l.payments[p.GuestID] = append(r.l.payments[p.GuestID], *p)
	return nil
}

func (r *fakePaymentRepo) GetByGuestID(_ context.Context, guestID string) ([]models.PaymentRecord, error) {
	return r.l.payments[guestID], nil
}

func (r *fakePaymentRepo) SumByGuestID(_ context.Context, guestID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.l.payments[guestID] {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

type fakeServiceRepo struct{ l *ledger }

func (r *fakeServiceRepo) CreateSale(_ context.Context, sale *models.ServiceSale) error {
	sale.ID = int64(len(r.l.sales) + 1)
	r.l.sales[sale.ID] = sale
	return nil
}

func (r *fakeServiceRepo) GetSalesByGuestID(_ context.Context, guestID string) ([]models.ServiceSale, error) {
	var out []models.ServiceSale
	for _, s := range r.l.sales {
		if s.GuestID == guestID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) GetSaleByID(_ context.Context, id int64) (*models.ServiceSale, error) {
	s, ok := r.l.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeServiceRepo) CapturePayment(_ context.Context, payment *models.ServicePaymentRecord) error {
	for _, existing := range r.l.servicePayments {
		if existing.IdempotencyKey == payment.IdempotencyKey {
			return nil
		}
	}
	payment.ID = int64(len(r.l.servicePayments) + 1)
	r.l.servicePayments = append(r.l.servicePayments, *payment)
	r.l.sales[payment.GuestServiceID].PaidAmount =
		r.l.sales[payment.GuestServiceID].PaidAmount.Add(payment.Amount)
	return nil
}

func (r *fakeServiceRepo) GetPaymentsByGuestID(_ context.Context, guestID string) ([]models.ServicePaymentRecord, error) {
	var out []models.ServicePaymentRecord
	for _, p := range r.l.servicePayments {
		if sale, ok := r.l.sales[p.GuestServiceID]; ok && sale.GuestID == guestID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeStore wires the fakes into the store contract
type fakeStore struct{ l *ledger }

func (s *fakeStore) Guest() store.GuestRepository           { return &fakeGuestRepo{s.l} }
func (s *fakeStore) Revenue() store.RevenueRepository       { return &fakeRevenueRepo{s.l} }
func (s *fakeStore) Upsale() store.UpsaleRepository         { return &fakeUpsaleRepo{s.l} }
func (s *fakeStore) Payment() store.PaymentRepository       { return &fakePaymentRepo{s.l} }
func (s *fakeStore) Service() store.ServiceRepository       { return &fakeServiceRepo{s.l} }
func (s *fakeStore) Commission() store.CommissionRepository { return nil }
func (s *fakeStore) Task() store.TaskRepository             { return nil }
func (s *fakeStore) Media() store.MediaRepository           { return nil }
func (s *fakeStore) DB() *pgxpool.Pool                      { return nil }
func (s *fakeStore) Close() error                           { return nil }

// fakeCache records lookups and invalidations in memory
type fakeCache struct {
	summaries    map[string]*models.EffectiveRevenueSummary
	portfolios   map[string]*models.PortfolioTotals
	invalidated  []string
	summaryGets  int
	summaryHits  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		summaries:  make(map[string]*models.EffectiveRevenueSummary),
		portfolios: make(map[string]*models.PortfolioTotals),
	}
}

func (c *fakeCache) GetSummary(_ context.Context, guestID string) (*models.EffectiveRevenueSummary, bool) {
	c.summaryGets++
	s, ok := c.summaries[guestID]
	if ok {
		c.summaryHits++
	}
	return s, ok
}

func (c *fakeCache) SetSummary(_ context.Context, guestID string, s *models.EffectiveRevenueSummary) {
	c.summaries[guestID] = s
}

func (c *fakeCache) GetPortfolio(_ context.Context, key string) (*models.PortfolioTotals, bool) {
	t, ok := c.portfolios[key]
	return t, ok
}

func (c *fakeCache) SetPortfolio(_ context.Context, key string, t *models.PortfolioTotals) {
	c.portfolios[key] = t
}

func (c *fakeCache) InvalidateGuest(_ context.Context, guestID string) {
	delete(c.summaries, guestID)
	c.portfolios = make(map[string]*models.PortfolioTotals)
	c.invalidated = append(c.invalidated, guestID)
}

type noopMetrics struct{}

func (noopMetrics) RecordSummaryCompute(string, float64) {}
func (noopMetrics) RecordPaymentCapture(string, string)  {}
func (noopMetrics) RecordUpsale()                        {}
func (noopMetrics) RecordAnomaly(string)                 {}
func (noopMetrics) RecordStoreError(string)              {}
func (noopMetrics) RecordCacheLookup(string)             {}
func (noopMetrics) RecordCheckin(int)                    {}

func newTestService(l *ledger, cache SummaryCache) *Service {
	return NewService(&fakeStore{l}, cache, nil, noopMetrics{}, nil, zap.NewNop())
}

func vnd(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func seedGuest(l *ledger, id, referrer string, sponsorship decimal.Decimal, source string) {
	l.guests[id] = &models.Guest{ID: id, Name: "Guest " + id, Category: models.CategoryRegular, Referrer: referrer}
	l.revenues[id] = &models.RevenueRecord{GuestID: id, Sponsorship: sponsorship, PaymentSource: source}
}

func TestSummaryMissingRevenueRecordIsZero(t *testing.T) {
	l := newLedger()
	l.guests["g1"] = &models.Guest{ID: "g1", Name: "No Ledger Yet", Category: models.CategoryVIP}

	svc := newTestService(l, nil)

	summary, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, summary.Effective.IsZero())
	assert.True(t, summary.TotalUnpaid.IsZero())
	assert.False(t, summary.HasHistory)
}

func TestSummaryUnknownGuest(t *testing.T) {
	svc := newTestService(newLedger(), nil)

	_, err := svc.Summary(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummaryReadThroughCache(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(5_000_000), models.PaymentSourceSponsor)
	cache := newFakeCache()

	svc := newTestService(l, cache)

	first, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 0, cache.summaryHits)

	second, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.summaryHits)
	assert.True(t, first.Effective.Equal(second.Effective))
}

func TestCapturePaymentRejectsOverpayment(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(1_000_000), models.PaymentSourceSponsor)

	svc := newTestService(l, nil)

	_, err := svc.CapturePayment(context.Background(), "g1", vnd(1_500_000), "")
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.Empty(t, l.payments["g1"])
}

func TestCapturePaymentRejectsNonPositive(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(1_000_000), models.PaymentSourceSponsor)

	svc := newTestService(l, nil)

	_, err := svc.CapturePayment(context.Background(), "g1", decimal.Zero, "")
	assert.Error(t, err)
}

func TestCapturePaymentAppendsAndInvalidates(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(2_000_000), models.PaymentSourceSponsor)
	cache := newFakeCache()

	svc := newTestService(l, cache)

	// Prime the cache, then mutate.
	_, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)

	payment, err := svc.CapturePayment(context.Background(), "g1", vnd(500_000), "deposit")
	require.NoError(t, err)
	assert.Equal(t, "deposit", payment.Note)
	assert.Equal(t, []string{"g1"}, cache.invalidated)

	summary, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, summary.TotalPaid.Equal(vnd(500_000)))
	assert.True(t, summary.TotalUnpaid.Equal(vnd(1_500_000)))
}

func TestCapturePaymentUpToExactBalance(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(1_000_000), models.PaymentSourceSponsor)

	svc := newTestService(l, nil)

	_, err := svc.CapturePayment(context.Background(), "g1", vnd(1_000_000), "")
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, summary.TotalUnpaid.IsZero())
}

func TestCaptureServicePayment(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(0), "")
	l.sales[1] = &models.ServiceSale{
		ID: 1, GuestID: "g1", ServiceName: "Photo booth",
		Price: vnd(3_000_000), PaidAmount: vnd(1_000_000),
		Status: models.ServiceStatusConfirmed,
	}

	svc := newTestService(l, nil)

	payment, err := svc.CaptureServicePayment(context.Background(), 1, vnd(2_000_000), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, payment.IdempotencyKey)
	assert.True(t, l.sales[1].PaidAmount.Equal(vnd(3_000_000)))

	_, err = svc.CaptureServicePayment(context.Background(), 1, vnd(1), nil)
	assert.ErrorIs(t, err, ErrOverpayment)
}

func TestRecordUpsaleSnapshotsAndInvalidates(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "g0", vnd(10_000_000), models.PaymentSourceQuota)
	cache := newFakeCache()

	svc := newTestService(l, cache)

	event, err := svc.RecordUpsale(context.Background(), "g1", vnd(25_000_000), models.PaymentSourceSponsor, nil, nil)
	require.NoError(t, err)
	assert.True(t, event.FromSponsorship.Equal(vnd(10_000_000)))
	assert.Equal(t, models.PaymentSourceQuota, event.FromPaymentSource)
	assert.True(t, l.revenues["g1"].IsUpsaled)
	assert.Contains(t, cache.invalidated, "g1")

	// Quota-funded upsale: effective is the delta over the snapshot.
	summary, err := svc.Summary(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, summary.Effective.Equal(vnd(15_000_000)))
}

func TestEditSponsorship(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(1_000_000), models.PaymentSourceSponsor)
	cache := newFakeCache()

	svc := newTestService(l, cache)

	err := svc.EditSponsorship(context.Background(), "g1", vnd(4_000_000), models.PaymentSourceSponsor)
	require.NoError(t, err)
	assert.True(t, l.revenues["g1"].Sponsorship.Equal(vnd(4_000_000)))
	assert.Contains(t, cache.invalidated, "g1")
}

func TestCheckIn(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(0), "")

	svc := newTestService(l, nil)

	require.NoError(t, svc.CheckIn(context.Background(), "g1"))
	assert.NotNil(t, l.guests["g1"].CheckedInAt)

	assert.ErrorIs(t, svc.CheckIn(context.Background(), "absent"), store.ErrNotFound)
}

// checkinRecorder captures gauge updates while ignoring the rest
type checkinRecorder struct {
	noopMetrics
	counts []int
}

func (r *checkinRecorder) RecordCheckin(totalCheckedIn int) {
	r.counts = append(r.counts, totalCheckedIn)
}

func TestCheckInSkipsGaugeWhenCountFails(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(0), "")
	seedGuest(l, "g2", "", vnd(0), "")
	l.countCheckedInErr = errors.New("connection reset")

	rec := &checkinRecorder{}
	svc := NewService(&fakeStore{l}, nil, nil, rec, nil, zap.NewNop())

	// Check-in succeeds even though the count read fails, and no stale zero
	// reaches the gauge.
	require.NoError(t, svc.CheckIn(context.Background(), "g1"))
	assert.NotNil(t, l.guests["g1"].CheckedInAt)
	assert.Empty(t, rec.counts)

	l.countCheckedInErr = nil
	require.NoError(t, svc.CheckIn(context.Background(), "g2"))
	assert.Equal(t, []int{2}, rec.counts)
}

func TestPortfolioSummary(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(5_000_000), models.PaymentSourceSponsor)
	seedGuest(l, "g2", "g1", vnd(3_000_000), models.PaymentSourceQuota)
	l.payments["g1"] = []models.PaymentRecord{{GuestID: "g1", Amount: vnd(2_000_000)}}

	svc := newTestService(l, nil)

	totals, err := svc.PortfolioSummary(context.Background(), store.GuestFilter{})
	require.NoError(t, err)
	// g2 is quota-funded with a referrer, so only g1 contributes.
	assert.True(t, totals.TotalSponsorship.Equal(vnd(5_000_000)))
	assert.True(t, totals.TotalPaid.Equal(vnd(2_000_000)))
	assert.True(t, totals.TotalUnpaid.Equal(vnd(3_000_000)))
}

func TestHistoryFeed(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(10_000_000), models.PaymentSourceSponsor)

	svc := newTestService(l, nil)

	_, err := svc.RecordUpsale(context.Background(), "g1", vnd(20_000_000), models.PaymentSourceSponsor, nil, nil)
	require.NoError(t, err)
	_, err = svc.CapturePayment(context.Background(), "g1", vnd(5_000_000), "first tranche")
	require.NoError(t, err)

	items, err := svc.History(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	kinds := []models.HistoryKind{items[0].Kind, items[1].Kind}
	assert.Contains(t, kinds, models.HistoryUpsale)
	assert.Contains(t, kinds, models.HistorySponsorshipPayment)
}

func TestProofOfPayment(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(10_000_000), models.PaymentSourceSponsor)
	bill := "https://cdn.example.com/bills/42.jpg"

	svc := newTestService(l, nil)

	_, ok, err := svc.ProofOfPayment(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.RecordUpsale(context.Background(), "g1", vnd(20_000_000), models.PaymentSourceSponsor, &bill, nil)
	require.NoError(t, err)

	url, ok, err := svc.ProofOfPayment(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bill, url)
}
