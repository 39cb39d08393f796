package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
)

const testAdminEmail = "admin@suaviagemaqui.com.br"

func seedPendingPartner(partners *fakePartnerStore, id string) {
	partners.partners[id] = &model.Partner{
		ID:     id,
		Name:   "Pousada Azul",
		Status: model.StatusAwaitingApproval,
	}
}

func newTestPartnerService(partners *fakePartnerStore, notifier *fakeNotifier) *PartnerService {
	allocator := NewIDAllocator(partners, 20)
	return NewPartnerService(partners, allocator, notifier, testAdminEmail, zap.NewNop())
}

func adminCaller() *model.Identity {
	return &model.Identity{UID: "u-admin", Email: testAdminEmail}
}

func waitForNotification(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
		return ""
	}
}

func TestApproveAssignsUniqueIDAndFlipsStatus(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	notifier := newFakeNotifier()
	svc := newTestPartnerService(partners, notifier)

	result, err := svc.Approve(context.Background(), adminCaller(), "p1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), result.PartnerID)
	assert.Contains(t, result.Message, result.PartnerID)

	approved, err := partners.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.PartnerID)
	assert.Equal(t, result.PartnerID, *approved.PartnerID)
	assert.NotNil(t, approved.ApprovedAt)

	assert.Equal(t, result.PartnerID, waitForNotification(t, notifier.approved))
}

func TestApproveAcceptsAdminClaim(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	svc := newTestPartnerService(partners, newFakeNotifier())

	caller := &model.Identity{
		UID:    "u2",
		Email:  "moderator@example.com",
		Claims: map[string]any{"admin": true},
	}
	_, err := svc.Approve(context.Background(), caller, "p1")
	assert.NoError(t, err)
}

func TestApproveRejectsNonAdmin(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	svc := newTestPartnerService(partners, newFakeNotifier())

	caller := &model.Identity{UID: "u3", Email: "guest@example.com"}
	_, err := svc.Approve(context.Background(), caller, "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))
	assert.Zero(t, partners.approveCalls, "denied call must not mutate the store")
}

func TestApproveRequiresAuthentication(t *testing.T) {
	partners := newFakePartnerStore()
	svc := newTestPartnerService(partners, newFakeNotifier())

	_, err := svc.Approve(context.Background(), nil, "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	assert.Zero(t, partners.approveCalls)
}

func TestApproveRequiresPartnerKey(t *testing.T) {
	svc := newTestPartnerService(newFakePartnerStore(), newFakeNotifier())

	_, err := svc.Approve(context.Background(), adminCaller(), "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestApproveFailsWhenIDSpaceExhausted(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	notifier := newFakeNotifier()

	// A two-value ID space with both values taken.
	allocator := NewIDAllocator(partners, 5)
	allocator.min = 100
	allocator.max = 101
	partners.takenIDs["100"] = true
	partners.takenIDs["101"] = true

	svc := NewPartnerService(partners, allocator, notifier, testAdminEmail, zap.NewNop())

	_, err := svc.Approve(context.Background(), adminCaller(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeResourceExhausted, apperr.CodeOf(err))
	assert.Zero(t, partners.approveCalls, "exhaustion must leave the record untouched")
}

func TestApproveUnknownPartner(t *testing.T) {
	svc := newTestPartnerService(newFakePartnerStore(), newFakeNotifier())

	_, err := svc.Approve(context.Background(), adminCaller(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestApproveIsNotReapplicable(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	svc := newTestPartnerService(partners, newFakeNotifier())

	_, err := svc.Approve(context.Background(), adminCaller(), "p1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), adminCaller(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestApproveStoreFailureIsInternal(t *testing.T) {
	partners := newFakePartnerStore()
	seedPendingPartner(partners, "p1")
	partners.approveErr = errors.New("disk on fire")
	svc := newTestPartnerService(partners, newFakeNotifier())

	_, err := svc.Approve(context.Background(), adminCaller(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	// The caller-visible message must not leak the underlying failure.
	assert.NotContains(t, apperr.MessageOf(err), "disk on fire")
}

func TestNotifyNewListingAlwaysConfirms(t *testing.T) {
	notifier := newFakeNotifier()
	svc := newTestPartnerService(newFakePartnerStore(), notifier)

	result := svc.NotifyNewListing(context.Background(), ListingNotice{
		PartnerName: "Pousada Azul",
		Email:       "contato@pousadaazul.com.br",
		Phone:       "+55 12 99999-0000",
	})
	require.NotNil(t, result)
	assert.True(t, result.Success)

	assert.Equal(t, "Pousada Azul", waitForNotification(t, notifier.listings))
}
