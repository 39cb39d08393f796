package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// StatsService serves the admin dashboard aggregates. Tallies are computed by
// the database, not by scanning collections client-side.
type StatsService struct {
	users      store.UserStore
	partners   store.PartnerStore
	adminEmail string
	logger     *zap.Logger
}

// NewStatsService creates the admin statistics service.
func NewStatsService(users store.UserStore, partners store.PartnerStore, adminEmail string, logger *zap.Logger) *StatsService {
	return &StatsService{
		users:      users,
		partners:   partners,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalUsers       int            `json:"totalUsers"`
	UsersByCategory  map[string]int `json:"usersByCategory"`
	TotalPartners    int            `json:"totalPartners"`
	PartnersByStatus map[string]int `json:"partnersByStatus"`
	ApprovedPartners int            `json:"approvedPartners"`
}

// Collect aggregates platform-wide counts for the administrator.
func (s *StatsService) Collect(ctx context.Context, caller *model.Identity) (*PlatformStats, error) {
	if err := authorizeAdmin(caller, s.adminEmail); err != nil {
		return nil, err
	}

	usersByCategory, err := s.users.CountByCategory(ctx)
	if err != nil {
		s.logger.Error("user aggregation failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInternal, "could not collect platform stats", err)
	}

	partnersByStatus, err := s.partners.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("partner aggregation failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInternal, "could not collect platform stats", err)
	}

	stats := &PlatformStats{
		UsersByCategory:  usersByCategory,
		PartnersByStatus: partnersByStatus,
		ApprovedPartners: partnersByStatus[model.StatusApproved],
	}
	for _, n := range usersByCategory {
		stats.TotalUsers += n
	}
	for _, n := range partnersByStatus {
		stats.TotalPartners += n
	}

	return stats, nil
}
