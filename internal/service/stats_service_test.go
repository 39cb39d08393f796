package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
)

func TestCollectAggregatesCounts(t *testing.T) {
	users := &fakeUserStore{counts: map[string]int{
		model.CategoryGuide: 12,
		"viajantes":         30,
	}}
	partners := newFakePartnerStore()
	partners.partners["p1"] = &model.Partner{ID: "p1", Status: model.StatusApproved}
	partners.partners["p2"] = &model.Partner{ID: "p2", Status: model.StatusApproved}
	partners.partners["p3"] = &model.Partner{ID: "p3", Status: model.StatusAwaitingApproval}

	svc := NewStatsService(users, partners, testAdminEmail, zap.NewNop())

	stats, err := svc.Collect(context.Background(), adminCaller())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalUsers)
	assert.Equal(t, 12, stats.UsersByCategory[model.CategoryGuide])
	assert.Equal(t, 3, stats.TotalPartners)
	assert.Equal(t, 2, stats.ApprovedPartners)
}

func TestCollectIsAdminOnly(t *testing.T) {
	svc := NewStatsService(&fakeUserStore{}, newFakePartnerStore(), testAdminEmail, zap.NewNop())

	_, err := svc.Collect(context.Background(), &model.Identity{UID: "u1", Email: "guest@example.com"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))
}
