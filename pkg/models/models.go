package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Guest represents an event guest. VIP role-holders and regular attendees
// share one shape; Category is the discriminant.
type Guest struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Role        string     `json:"role" db:"role"` // key into role configuration
	Category    string     `json:"category" db:"category"`
	Referrer    string     `json:"referrer" db:"referrer"` // guest id, ReferrerAdvertising, or empty
	AvatarURL   *string    `json:"avatar_url" db:"avatar_url"`
	CheckedInAt *time.Time `json:"checked_in_at" db:"checked_in_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RevenueRecord holds a guest's committed sponsorship. One per guest, created
// at registration from role defaults.
type RevenueRecord struct {
	GuestID       string          `json:"guest_id" db:"guest_id"`
	Sponsorship   decimal.Decimal `json:"sponsorship" db:"sponsorship"` // original committed amount, >= 0
	PaymentSource string          `json:"payment_source" db:"payment_source"`
	IsUpsaled     bool            `json:"is_upsaled" db:"is_upsaled"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// UpsaleEvent is an append-only snapshot of the revenue state before a
// sponsorship renegotiation.
type UpsaleEvent struct {
	ID                int64           `json:"id" db:"id"`
	GuestID           string          `json:"guest_id" db:"guest_id"`
	FromSponsorship   decimal.Decimal `json:"from_sponsorship" db:"from_sponsorship"`
	FromPaymentSource string          `json:"from_payment_source" db:"from_payment_source"`
	BillImageURL      *string         `json:"bill_image_url" db:"bill_image_url"`
	AgentID           *string         `json:"agent_id" db:"agent_id"` // who closed the upsale, feeds commission reporting
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// PaymentRecord is an append-only ledger entry against a guest's sponsorship.
type PaymentRecord struct {
	ID        int64           `json:"id" db:"id"`
	GuestID   string          `json:"guest_id" db:"guest_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"` // > 0
	Note      string          `json:"note" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ServiceSale is a purchased add-on service tied to a guest. Tracked apart
// from sponsorship but folded into the guest's total revenue.
type ServiceSale struct {
	ID          int64           `json:"id" db:"id"`
	GuestID     string          `json:"guest_id" db:"guest_id"`
	ServiceID   int64           `json:"service_id" db:"service_id"`
	ServiceName string          `json:"service_name" db:"service_name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	PaidAmount  decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status      string          `json:"status" db:"status"`
	Notes       *string         `json:"notes" db:"notes"`
	ReferrerID  *string         `json:"referrer_id" db:"referrer_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ServicePaymentRecord is an append-only ledger entry against one service sale.
type ServicePaymentRecord struct {
	ID             int64           `json:"id" db:"id"`
	GuestServiceID int64           `json:"guest_service_id" db:"guest_service_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	BillImageURL   *string         `json:"bill_image_url" db:"bill_image_url"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// EffectiveRevenueSummary is derived per guest on every read, never persisted.
type EffectiveRevenueSummary struct {
	Original       decimal.Decimal `json:"original"`
	Effective      decimal.Decimal `json:"effective"`
	ServiceRevenue decimal.Decimal `json:"service_revenue"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalUnpaid    decimal.Decimal `json:"total_unpaid"`
	HasHistory     bool            `json:"has_history"`
}

// PortfolioTotals is the fold of guest summaries shown on dashboard stat cards.
type PortfolioTotals struct {
	TotalSponsorship decimal.Decimal `json:"total_sponsorship"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalUnpaid      decimal.Decimal `json:"total_unpaid"`
}

// CommissionRow is one server-computed commission summary line. Rows are
// rendered as-is; nothing here is recomputed in Go.
type CommissionRow struct {
	Name      string          `json:"name" db:"name"`
	Count     int             `json:"count" db:"count"`
	Total     decimal.Decimal `json:"total" db:"total"`
	TotalPaid decimal.Decimal `json:"total_paid" db:"total_paid"`
}

// Task is one event-day checklist item.
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Assignee  string    `json:"assignee" db:"assignee"`
	Done      bool      `json:"done" db:"done"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MediaBenefit is a media deliverable promised to a sponsor.
type MediaBenefit struct {
	ID          int64     `json:"id" db:"id"`
	GuestID     string    `json:"guest_id" db:"guest_id"`
	Channel     string    `json:"channel" db:"channel"` // fanpage, backdrop, livestream, ...
	Description string    `json:"description" db:"description"`
	Delivered   bool      `json:"delivered" db:"delivered"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Constants for guest categories
const (
	CategoryVIP     = "vip"
	CategoryRegular = "regular"
)

// Constants for payment sources. PaymentSourceQuota marks sponsorship
// attributed to an internal target rather than an external paying sponsor.
const (
	PaymentSourceQuota   = "Chỉ tiêu"
	PaymentSourceSponsor = "Sponsor"
)

// ReferrerAdvertising is the sentinel referrer value for guests acquired via
// advertising rather than a personal referral.
const ReferrerAdvertising = "QC"

// Constants for service sale statuses
const (
	ServiceStatusPending   = "pending"
	ServiceStatusConfirmed = "confirmed"
	ServiceStatusCancelled = "cancelled"
)

// IsValidCategory reports whether the guest category is known.
func IsValidCategory(category string) bool {
	switch category {
	case CategoryVIP, CategoryRegular:
		return true
	default:
		return false
	}
}

// HasReferrer reports whether the guest was brought in by someone. The
// advertising sentinel counts as a referrer for the quota rule.
func (g *Guest) HasReferrer() bool {
	return g.Referrer != ""
}

// Outstanding returns the unpaid remainder of one service sale.
func (s *ServiceSale) Outstanding() decimal.Decimal {
	return s.Price.Sub(s.PaidAmount)
}
