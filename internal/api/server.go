// Package api is the JSON HTTP surface of the dashboard backend
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gala-ops/internal/commission"
	"gala-ops/internal/guest"
	"gala-ops/internal/metrics"
	"gala-ops/internal/ops"
	"gala-ops/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server holds the handlers' dependencies
type Server struct {
	guests      *guest.Service
	commissions *commission.Service
	ops         *ops.Service
	metrics     *metrics.Handler
	logger      *zap.Logger
}

// NewServer creates the API server
func NewServer(
	guests *guest.Service,
	commissions *commission.Service,
	opsService *ops.Service,
	metricsHandler *metrics.Handler,
	logger *zap.Logger,
) *Server {
	return &Server{
		guests:      guests,
		commissions: commissions,
		ops:         opsService,
		metrics:     metricsHandler,
		logger:      logger,
	}
}

// Router builds the route table
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.metrics.HealthHandler)
	r.Handle("/metrics", s.metrics.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/guests", func(r chi.Router) {
			r.Get("/", s.listGuests)
			r.Post("/", s.registerGuest)

			r.Route("/{guestID}", func(r chi.Router) {
				r.Get("/", s.getGuest)
				r.Get("/summary", s.getSummary)
				r.Get("/history", s.getHistory)
				r.Get("/bill-image", s.getBillImage)
				r.Post("/payments", s.capturePayment)
				r.Post("/upsale", s.recordUpsale)
				r.Patch("/sponsorship", s.editSponsorship)
				r.Post("/checkin", s.checkIn)
				r.Post("/services", s.createServiceSale)
				r.Get("/media", s.listMediaBenefits)
				r.Post("/media", s.createMediaBenefit)
			})
		})

		r.Get("/portfolio/summary", s.getPortfolioSummary)
		r.Get("/profile/{guestID}", s.getProfile)
		r.Post("/service-payments", s.captureServicePayment)

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", s.getCommissions)
			r.Get("/referrers", s.getReferrerCommissions)
			r.Get("/upsales", s.getUpsaleCommissions)
			r.Get("/services", s.getServiceCommissions)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/", s.createTask)
			r.Patch("/{taskID}", s.updateTask)
			r.Delete("/{taskID}", s.deleteTask)
		})

		r.Patch("/media/{benefitID}", s.updateMediaBenefit)
	})

	return r
}

// logRequests logs every request with its duration
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)))
	})
}

// respondJSON writes a JSON body with the given status
func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError maps service errors onto HTTP statuses
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, guest.ErrOverpayment):
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// respondBadRequest reports a malformed or invalid request body
func (s *Server) respondBadRequest(w http.ResponseWriter, msg string) {
	s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decodeBody parses a JSON request body
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
