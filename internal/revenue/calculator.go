// Package revenue holds the effective-revenue engine: the single place that
// turns raw sponsorship, payment, upsale and service-sale records into the
// figures shown to operators. Every screen consumes this package instead of
// re-deriving the rules.
package revenue

import (
	"sort"

	"gala-ops/pkg/models"

	"github.com/shopspring/decimal"
)

// SponsorshipFigures is the calculator output: the committed amount and the
// amount actually counted toward top-line revenue.
type SponsorshipFigures struct {
	Original  decimal.Decimal `json:"original"`
	Effective decimal.Decimal `json:"effective"`
}

// ComputeEffectiveSponsorship maps one guest's revenue record and upsale
// history to its effective sponsorship.
//
// An upsaled guest whose earliest upsale snapshot was quota-funded has that
// quota portion subtracted back out, so the top line reflects only money the
// upsale actually brought in. A non-upsaled quota slot that exists only
// because of a referral counts as zero until a real upsale happens.
//
// The function is pure: no I/O, no clock, inputs are never mutated. Results
// may be negative when the snapshot exceeds the current sponsorship; callers
// surface that as a validation warning, never a clamp.
func ComputeEffectiveSponsorship(rev models.RevenueRecord, referrer string, history []models.UpsaleEvent) SponsorshipFigures {
	original := rev.Sponsorship

	if rev.IsUpsaled {
		first, ok := earliestUpsale(history)
		if !ok {
			// Flag without evidence is a no-op, not an error.
			return SponsorshipFigures{Original: original, Effective: original}
		}
		if first.FromPaymentSource == models.PaymentSourceQuota {
			return SponsorshipFigures{Original: original, Effective: original.Sub(first.FromSponsorship)}
		}
		return SponsorshipFigures{Original: original, Effective: original}
	}

	// VIP records carry no payment source; an empty source is external
	// funding, never quota.
	if rev.PaymentSource == models.PaymentSourceQuota && referrer != "" {
		return SponsorshipFigures{Original: original, Effective: decimal.Zero}
	}
	return SponsorshipFigures{Original: original, Effective: original}
}

// earliestUpsale returns the upsale event with the smallest created_at. The
// input may arrive in any order; it is copied before sorting.
func earliestUpsale(history []models.UpsaleEvent) (models.UpsaleEvent, bool) {
	if len(history) == 0 {
		return models.UpsaleEvent{}, false
	}

	sorted := make([]models.UpsaleEvent, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return sorted[0], true
}
