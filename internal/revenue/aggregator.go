package revenue

import (
	"gala-ops/pkg/models"

	"github.com/shopspring/decimal"
)

// Summarize combines one guest's effective sponsorship with its service-sale
// revenue and payment ledgers into the per-guest summary shown on the detail
// panel and the revenue list.
//
// The identity TotalUnpaid = TotalRevenue - TotalPaid always holds; unpaid is
// allowed to go negative and is reported, not clamped.
func Summarize(
	rev models.RevenueRecord,
	referrer string,
	history []models.UpsaleEvent,
	payments []models.PaymentRecord,
	sales []models.ServiceSale,
) models.EffectiveRevenueSummary {
	figures := ComputeEffectiveSponsorship(rev, referrer, history)

	sponsorshipPaid := decimal.Zero
	for _, p := range payments {
		sponsorshipPaid = sponsorshipPaid.Add(p.Amount)
	}

	serviceRevenue := decimal.Zero
	servicePaid := decimal.Zero
	for _, s := range sales {
		serviceRevenue = serviceRevenue.Add(s.Price)
		servicePaid = servicePaid.Add(s.PaidAmount)
	}

	totalRevenue := figures.Effective.Add(serviceRevenue)
	totalPaid := sponsorshipPaid.Add(servicePaid)

	return models.EffectiveRevenueSummary{
		Original:       figures.Original,
		Effective:      figures.Effective,
		ServiceRevenue: serviceRevenue,
		TotalRevenue:   totalRevenue,
		TotalPaid:      totalPaid,
		TotalUnpaid:    totalRevenue.Sub(totalPaid),
		HasHistory:     len(payments) > 0 || len(history) > 0 || len(sales) > 0,
	}
}

// ReducePortfolio folds guest summaries into the dashboard-level totals.
// Ordering of the input does not matter; an empty input yields zero totals.
func ReducePortfolio(summaries []models.EffectiveRevenueSummary) models.PortfolioTotals {
	totals := models.PortfolioTotals{
		TotalSponsorship: decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalUnpaid:      decimal.Zero,
	}

	for _, s := range summaries {
		totals.TotalSponsorship = totals.TotalSponsorship.Add(s.Effective)
		totals.TotalPaid = totals.TotalPaid.Add(s.TotalPaid)
		totals.TotalUnpaid = totals.TotalUnpaid.Add(s.TotalUnpaid)
	}

	return totals
}
