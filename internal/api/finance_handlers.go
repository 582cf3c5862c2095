package api

import (
	"net/http"

	"gala-ops/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type capturePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

func (s *Server) capturePayment(w http.ResponseWriter, r *http.Request) {
	var req capturePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		s.respondBadRequest(w, "amount must be positive")
		return
	}

	payment, err := s.guests.CapturePayment(r.Context(), chi.URLParam(r, "guestID"), req.Amount, req.Note)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, payment)
}

type recordUpsaleRequest struct {
	NewSponsorship   decimal.Decimal `json:"new_sponsorship"`
	NewPaymentSource string          `json:"new_payment_source"`
	BillImageURL     *string         `json:"bill_image_url"`
	AgentID          *string         `json:"agent_id"`
}

func (s *Server) recordUpsale(w http.ResponseWriter, r *http.Request) {
	var req recordUpsaleRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.NewSponsorship.IsNegative() {
		s.respondBadRequest(w, "new_sponsorship must not be negative")
		return
	}

	event, err := s.guests.RecordUpsale(r.Context(), chi.URLParam(r, "guestID"),
		req.NewSponsorship, req.NewPaymentSource, req.BillImageURL, req.AgentID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, event)
}

type editSponsorshipRequest struct {
	Sponsorship   decimal.Decimal `json:"sponsorship"`
	PaymentSource string          `json:"payment_source"`
}

func (s *Server) editSponsorship(w http.ResponseWriter, r *http.Request) {
	var req editSponsorshipRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Sponsorship.IsNegative() {
		s.respondBadRequest(w, "sponsorship must not be negative")
		return
	}

	guestID := chi.URLParam(r, "guestID")
	if err := s.guests.EditSponsorship(r.Context(), guestID, req.Sponsorship, req.PaymentSource); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated", "guest_id": guestID})
}

type createServiceSaleRequest struct {
	ServiceID   int64           `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
	Notes       *string         `json:"notes"`
	ReferrerID  *string         `json:"referrer_id"`
}

func (s *Server) createServiceSale(w http.ResponseWriter, r *http.Request) {
	var req createServiceSaleRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.ServiceName == "" {
		s.respondBadRequest(w, "service_name is required")
		return
	}
	if req.Price.IsNegative() {
		s.respondBadRequest(w, "price must not be negative")
		return
	}

	sale := &models.ServiceSale{
		GuestID:     chi.URLParam(r, "guestID"),
		ServiceID:   req.ServiceID,
		ServiceName: req.ServiceName,
		Price:       req.Price,
		PaidAmount:  decimal.Zero,
		Notes:       req.Notes,
		ReferrerID:  req.ReferrerID,
	}

	if err := s.guests.CreateServiceSale(r.Context(), sale); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, sale)
}

type captureServicePaymentRequest struct {
	SaleID       int64           `json:"sale_id"`
	Amount       decimal.Decimal `json:"amount"`
	BillImageURL *string         `json:"bill_image_url"`
}

func (s *Server) captureServicePayment(w http.ResponseWriter, r *http.Request) {
	var req captureServicePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.SaleID == 0 {
		s.respondBadRequest(w, "sale_id is required")
		return
	}
	if !req.Amount.IsPositive() {
		s.respondBadRequest(w, "amount must be positive")
		return
	}

	payment, err := s.guests.CaptureServicePayment(r.Context(), req.SaleID, req.Amount, req.BillImageURL)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, payment)
}

func (s *Server) getCommissions(w http.ResponseWriter, r *http.Request) {
	report, err := s.commissions.Report(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) getReferrerCommissions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.commissions.ByReferrer(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) getUpsaleCommissions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.commissions.ByUpsaleAgent(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) getServiceCommissions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.commissions.ByServiceSeller(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, rows)
}
