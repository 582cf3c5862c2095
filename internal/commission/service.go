// Package commission exposes the server-computed commission summaries.
// The store aggregates in SQL; this layer only shapes the report.
package commission

import (
	"context"
	"fmt"

	"gala-ops/internal/store"
	"gala-ops/pkg/models"

	"go.uber.org/zap"
)

// Report groups the three commission views shown on the finance tab
type Report struct {
	ByReferrer      []models.CommissionRow `json:"by_referrer"`
	ByUpsaleAgent   []models.CommissionRow `json:"by_upsale_agent"`
	ByServiceSeller []models.CommissionRow `json:"by_service_seller"`
}

// Service reads commission summaries
type Service struct {
	commissions store.CommissionRepository
	logger      *zap.Logger
}

// NewService creates the commission service
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{
		commissions: s.Commission(),
		logger:      logger,
	}
}

// Report returns all three commission views. Rows come back exactly as the
// store computed them; nothing is recomputed here.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	byReferrer, err := s.commissions.ByReferrer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load referrer commissions: %w", err)
	}

	byAgent, err := s.commissions.ByUpsaleAgent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load upsale agent commissions: %w", err)
	}

	bySeller, err := s.commissions.ByServiceSeller(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load service seller commissions: %w", err)
	}

	return &Report{
		ByReferrer:      byReferrer,
		ByUpsaleAgent:   byAgent,
		ByServiceSeller: bySeller,
	}, nil
}

// ByReferrer returns commission lines grouped by referrer
func (s *Service) ByReferrer(ctx context.Context) ([]models.CommissionRow, error) {
	rows, err := s.commissions.ByReferrer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load referrer commissions: %w", err)
	}
	return rows, nil
}

// ByUpsaleAgent returns commission lines grouped by the agent who closed
// each upsale
func (s *Service) ByUpsaleAgent(ctx context.Context) ([]models.CommissionRow, error) {
	rows, err := s.commissions.ByUpsaleAgent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load upsale agent commissions: %w", err)
	}
	return rows, nil
}

// ByServiceSeller returns commission lines grouped by service seller
func (s *Service) ByServiceSeller(ctx context.Context) ([]models.CommissionRow, error) {
	rows, err := s.commissions.ByServiceSeller(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load service seller commissions: %w", err)
	}
	return rows, nil
}
