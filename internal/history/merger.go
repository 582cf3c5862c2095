// Package history builds the single chronological financial feed a guest's
// detail panel renders: sponsorship payments, upsale events and service
// payments merged into one typed timeline.
package history

import (
	"sort"

	"gala-ops/pkg/models"
)

// Merge produces the guest's financial feed, ordered newest first. Each entry
// carries a kind discriminant so the presentation layer can render the three
// sources uniformly. The sort is stable: entries sharing a timestamp keep
// their source order (upsales, then sponsorship payments, then service
// payments).
func Merge(
	upsales []models.UpsaleEvent,
	payments []models.PaymentRecord,
	sales []models.ServiceSale,
	servicePayments []models.ServicePaymentRecord,
) []models.HistoryItem {
	items := make([]models.HistoryItem, 0, len(upsales)+len(payments)+len(servicePayments))

	for _, u := range upsales {
		fromSponsorship := u.FromSponsorship
		fromSource := u.FromPaymentSource
		items = append(items, models.HistoryItem{
			Kind:              models.HistoryUpsale,
			Amount:            u.FromSponsorship,
			CreatedAt:         u.CreatedAt,
			FromSponsorship:   &fromSponsorship,
			FromPaymentSource: &fromSource,
			BillImageURL:      u.BillImageURL,
		})
	}

	for _, p := range payments {
		items = append(items, models.HistoryItem{
			Kind:      models.HistorySponsorshipPayment,
			Amount:    p.Amount,
			CreatedAt: p.CreatedAt,
			Note:      p.Note,
		})
	}

	serviceNames := make(map[int64]string, len(sales))
	for _, s := range sales {
		serviceNames[s.ID] = s.ServiceName
	}

	for _, sp := range servicePayments {
		item := models.HistoryItem{
			Kind:         models.HistoryServicePayment,
			Amount:       sp.Amount,
			CreatedAt:    sp.CreatedAt,
			BillImageURL: sp.BillImageURL,
		}
		if name, ok := serviceNames[sp.GuestServiceID]; ok {
			item.ServiceName = &name
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items
}

// LatestBillImage returns the bill image of the newest upsale event carrying
// one, used as the guest's current proof-of-payment image.
//
// Deliberately the opposite direction from the calculator, which reads the
// earliest event; the two policies must not be merged.
func LatestBillImage(upsales []models.UpsaleEvent) (string, bool) {
	var (
		found bool
		url   string
		best  models.UpsaleEvent
	)

	for _, u := range upsales {
		if u.BillImageURL == nil || *u.BillImageURL == "" {
			continue
		}
		if !found || u.CreatedAt.After(best.CreatedAt) {
			found = true
			best = u
			url = *u.BillImageURL
		}
	}

	return url, found
}
