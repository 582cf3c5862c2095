package api

import (
	"net/http"

	"gala-ops/internal/store"
	"gala-ops/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type registerGuestRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	Category      string          `json:"category"`
	Referrer      string          `json:"referrer"`
	Sponsorship   decimal.Decimal `json:"sponsorship"`
	PaymentSource string          `json:"payment_source"`
}

func (s *Server) registerGuest(w http.ResponseWriter, r *http.Request) {
	var req registerGuestRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		s.respondBadRequest(w, "name is required")
		return
	}
	if !models.IsValidCategory(req.Category) {
		s.respondBadRequest(w, "category must be vip or regular")
		return
	}
	if req.Sponsorship.IsNegative() {
		s.respondBadRequest(w, "sponsorship must not be negative")
		return
	}

	g := &models.Guest{
		ID:       req.ID,
		Name:     req.Name,
		Role:     req.Role,
		Category: req.Category,
		Referrer: req.Referrer,
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	if err := s.guests.Register(r.Context(), g, req.Sponsorship, req.PaymentSource); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, g)
}

func (s *Server) listGuests(w http.ResponseWriter, r *http.Request) {
	filter := store.GuestFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Role:     r.URL.Query().Get("role"),
	}

	guests, err := s.guests.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, guests)
}

func (s *Server) getGuest(w http.ResponseWriter, r *http.Request) {
	g, err := s.guests.Get(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, g)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.guests.Summary(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.guests.History(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) getBillImage(w http.ResponseWriter, r *http.Request) {
	url, ok, err := s.guests.ProofOfPayment(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !ok {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "no bill image on record"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"bill_image_url": url})
}

func (s *Server) getPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	filter := store.GuestFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Role:     r.URL.Query().Get("role"),
	}

	totals, err := s.guests.PortfolioSummary(r.Context(), filter)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, totals)
}

// profileResponse is the public guest card: identity only, no financials
type profileResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Category  string  `json:"category"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CheckedIn bool    `json:"checked_in"`
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	g, err := s.guests.Get(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, profileResponse{
		ID:        g.ID,
		Name:      g.Name,
		Role:      g.Role,
		Category:  g.Category,
		AvatarURL: g.AvatarURL,
		CheckedIn: g.CheckedInAt != nil,
	})
}

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestID")

	if err := s.guests.CheckIn(r.Context(), guestID); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "checked_in", "guest_id": guestID})
}
