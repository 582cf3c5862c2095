package guest

import (
	"context"
	"fmt"
	"strings"

	"gala-ops/internal/store"

	"go.uber.org/zap"
)

// Finding is one anomaly surfaced by a reconciliation sweep
type Finding struct {
	GuestID string `json:"guest_id"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
}

// FindingsDigest renders one sweep's findings as a single alert message, so
// a noisy ledger produces one chat post instead of one per finding
func FindingsDigest(findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 reconciliation: %d finding(s)\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s] guest %s: %s\n", f.Kind, f.GuestID, f.Detail)
	}
	return b.String()
}

// Reconcile recomputes every guest's summary from the ledger, bypassing the
// cache, and returns the anomalies it finds. Fresh summaries are written back
// to the cache, so a sweep doubles as a warm-up.
func (s *Service) Reconcile(ctx context.Context) ([]Finding, error) {
	guests, err := s.guests.List(ctx, store.GuestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list guests for reconciliation: %w", err)
	}

	var findings []Finding
	for _, g := range guests {
		rec, err := s.fetchRecords(ctx, g.ID)
		if err != nil {
			s.logger.Error("reconciliation skipped guest",
				zap.String("guest_id", g.ID), zap.Error(err))
			findings = append(findings, Finding{
				GuestID: g.ID,
				Kind:    "unreadable_ledger",
				Detail:  err.Error(),
			})
			continue
		}

		summary := s.compute(rec)

		if rec.revenue.IsUpsaled && len(rec.upsales) == 0 {
			findings = append(findings, Finding{
				GuestID: g.ID,
				Kind:    "flag_without_evidence",
				Detail:  "upsale flag set with no upsale events",
			})
		}
		if summary.Effective.IsNegative() {
			findings = append(findings, Finding{
				GuestID: g.ID,
				Kind:    "negative_effective",
				Detail:  summary.Effective.String(),
			})
		}
		if summary.TotalUnpaid.IsNegative() {
			findings = append(findings, Finding{
				GuestID: g.ID,
				Kind:    "negative_unpaid",
				Detail:  summary.TotalUnpaid.String(),
			})
		}

		if s.cache != nil {
			s.cache.SetSummary(ctx, g.ID, &summary)
		}
	}

	s.logger.Info("reconciliation sweep finished",
		zap.Int("guests", len(guests)),
		zap.Int("findings", len(findings)))

	return findings, nil
}
