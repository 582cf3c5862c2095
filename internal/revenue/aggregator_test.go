package revenue

import (
	"testing"
	"time"

	"gala-ops/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeFoldsServiceRevenueAndPayments(t *testing.T) {
	rev := models.RevenueRecord{
		Sponsorship:   vnd(5_000_000),
		PaymentSource: models.PaymentSourceSponsor,
	}
	payments := []models.PaymentRecord{
		{Amount: vnd(2_000_000), CreatedAt: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	sales := []models.ServiceSale{
		{ServiceName: "Media kit", Price: vnd(1_000_000), PaidAmount: vnd(1_000_000)},
	}

	summary := Summarize(rev, "", nil, payments, sales)

	assert.True(t, summary.TotalRevenue.Equal(vnd(6_000_000)))
	assert.True(t, summary.TotalPaid.Equal(vnd(3_000_000)))
	assert.True(t, summary.TotalUnpaid.Equal(vnd(3_000_000)))
	assert.True(t, summary.HasHistory)
}

func TestSummarizeUnpaidIdentityAlwaysHolds(t *testing.T) {
	cases := []struct {
		name     string
		rev      models.RevenueRecord
		referrer string
		history  []models.UpsaleEvent
		payments []models.PaymentRecord
		sales    []models.ServiceSale
	}{
		{
			name: "no records at all",
			rev:  models.RevenueRecord{Sponsorship: decimal.Zero},
		},
		{
			name:     "quota zeroed with service sales",
			rev:      models.RevenueRecord{Sponsorship: vnd(10_000_000), PaymentSource: models.PaymentSourceQuota},
			referrer: "VIP001",
			sales:    []models.ServiceSale{{Price: vnd(2_000_000), PaidAmount: vnd(500_000)}},
		},
		{
			name: "overpaid guest goes negative",
			rev:  models.RevenueRecord{Sponsorship: vnd(1_000_000), PaymentSource: models.PaymentSourceSponsor},
			payments: []models.PaymentRecord{
				{Amount: vnd(1_000_000)},
				{Amount: vnd(500_000)},
			},
		},
		{
			name: "negative effective after oversized snapshot",
			rev:  models.RevenueRecord{Sponsorship: vnd(5_000_000), IsUpsaled: true},
			history: []models.UpsaleEvent{
				{FromSponsorship: vnd(10_000_000), FromPaymentSource: models.PaymentSourceQuota, CreatedAt: time.Now()},
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.rev, tt.referrer, tt.history, tt.payments, tt.sales)
			assert.True(t, summary.TotalUnpaid.Equal(summary.TotalRevenue.Sub(summary.TotalPaid)))
		})
	}
}

func TestSummarizeHasHistory(t *testing.T) {
	rev := models.RevenueRecord{Sponsorship: vnd(1_000_000)}

	assert.False(t, Summarize(rev, "", nil, nil, nil).HasHistory)
	assert.True(t, Summarize(rev, "", []models.UpsaleEvent{{}}, nil, nil).HasHistory)
	assert.True(t, Summarize(rev, "", nil, []models.PaymentRecord{{}}, nil).HasHistory)
	assert.True(t, Summarize(rev, "", nil, nil, []models.ServiceSale{{}}).HasHistory)
}

func TestSummarizeVIPWithoutPaymentSource(t *testing.T) {
	// VIP guests carry no payment source; their sponsorship must never be
	// zeroed by the quota rule even when a referrer exists.
	rev := models.RevenueRecord{Sponsorship: vnd(20_000_000)}

	summary := Summarize(rev, "VIP009", nil, nil, nil)

	assert.True(t, summary.Effective.Equal(vnd(20_000_000)))
}

func TestReducePortfolioEmptyInputIsZero(t *testing.T) {
	totals := ReducePortfolio(nil)

	assert.True(t, totals.TotalSponsorship.IsZero())
	assert.True(t, totals.TotalPaid.IsZero())
	assert.True(t, totals.TotalUnpaid.IsZero())
}

func TestReducePortfolioSums(t *testing.T) {
	summaries := []models.EffectiveRevenueSummary{
		{Effective: vnd(10_000_000), TotalPaid: vnd(4_000_000), TotalUnpaid: vnd(6_000_000)},
		{Effective: vnd(5_000_000), TotalPaid: vnd(5_000_000), TotalUnpaid: decimal.Zero},
		{Effective: vnd(-2_000_000), TotalPaid: decimal.Zero, TotalUnpaid: vnd(-2_000_000)},
	}

	totals := ReducePortfolio(summaries)

	assert.True(t, totals.TotalSponsorship.Equal(vnd(13_000_000)))
	assert.True(t, totals.TotalPaid.Equal(vnd(9_000_000)))
	assert.True(t, totals.TotalUnpaid.Equal(vnd(4_000_000)))
}
