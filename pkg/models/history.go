package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryKind discriminates the entries of a guest's merged financial feed.
type HistoryKind string

const (
	HistorySponsorshipPayment HistoryKind = "sponsorship_payment"
	HistoryUpsale             HistoryKind = "upsale"
	HistoryServicePayment     HistoryKind = "service_payment"
)

// HistoryItem is one entry of the chronological financial feed. Kind selects
// which optional fields are set.
type HistoryItem struct {
	Kind      HistoryKind     `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`

	// Upsale entries: the sponsorship and funding source before the upsale.
	FromSponsorship   *decimal.Decimal `json:"from_sponsorship,omitempty"`
	FromPaymentSource *string          `json:"from_payment_source,omitempty"`

	// Service payment entries.
	ServiceName *string `json:"service_name,omitempty"`

	BillImageURL *string `json:"bill_image_url,omitempty"`
	Note         string  `json:"note,omitempty"`
}

// IsValidHistoryKind reports whether the kind is one of the three feed kinds.
func IsValidHistoryKind(kind HistoryKind) bool {
	switch kind {
	case HistorySponsorshipPayment, HistoryUpsale, HistoryServicePayment:
		return true
	default:
		return false
	}
}
