package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/metrics"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

const notifyTimeout = 10 * time.Second

// Notifier announces workflow outcomes to the admin channels. Implementations
// must swallow delivery failures; the workflows never wait on them.
type Notifier interface {
	PartnerApproved(ctx context.Context, partnerKey, partnerID string)
	NewListing(ctx context.Context, partnerName, email, phone string)
}

// PartnerService runs the partner approval workflow.
type PartnerService struct {
	partners   store.PartnerStore
	allocator  *IDAllocator
	notifier   Notifier
	adminEmail string
	logger     *zap.Logger
	now        func() time.Time
}

// NewPartnerService creates the approval workflow service.
func NewPartnerService(partners store.PartnerStore, allocator *IDAllocator, notifier Notifier, adminEmail string, logger *zap.Logger) *PartnerService {
	return &PartnerService{
		partners:   partners,
		allocator:  allocator,
		notifier:   notifier,
		adminEmail: adminEmail,
		logger:     logger,
		now:        time.Now,
	}
}

// ApprovalResult is returned to the approving administrator.
type ApprovalResult struct {
	PartnerID string `json:"partnerId"`
	Message   string `json:"message"`
}

// Approve authorizes the caller, assigns a unique 6-digit partner ID and flips
// the listing to approved. The admin notification is detached: once the
// approval update commits, a delivery failure cannot fail the call.
func (s *PartnerService) Approve(ctx context.Context, caller *model.Identity, partnerKey string) (*ApprovalResult, error) {
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.RecordWorkflowDuration("approve_partner", result, time.Since(start).Seconds())
	}()

	if err := authorizeAdmin(caller, s.adminEmail); err != nil {
		return nil, err
	}
	if partnerKey == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "partnerKey is required")
	}

	partnerID, err := s.allocator.Allocate(ctx)
	if err != nil {
		s.logger.Error("partner id allocation failed",
			zap.String("partner_key", partnerKey), zap.Error(err))
		if apperr.CodeOf(err) == apperr.CodeResourceExhausted {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "could not allocate partner id", err)
	}

	if err := s.partners.Approve(ctx, partnerKey, partnerID, s.now()); err != nil {
		switch {
		case errors.Is(err, store.ErrPartnerNotFound):
			return nil, apperr.New(apperr.CodeNotFound, "partner not found")
		case errors.Is(err, store.ErrPartnerIDAssigned):
			return nil, apperr.New(apperr.CodeInvalidArgument, "partner is already approved")
		}
		s.logger.Error("partner approval update failed",
			zap.String("partner_key", partnerKey), zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInternal, "could not approve partner", err)
	}

	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.notifier.PartnerApproved(nctx, partnerKey, partnerID)
	}()

	result = "success"
	s.logger.Info("partner approved",
		zap.String("partner_key", partnerKey), zap.String("partner_id", partnerID))

	return &ApprovalResult{
		PartnerID: partnerID,
		Message:   fmt.Sprintf("Parceiro aprovado com o ID %s.", partnerID),
	}, nil
}

// ListingNotice is the payload of the new-listing notification call. The wire
// names follow the original frontend contract.
type ListingNotice struct {
	PartnerName string `json:"nomeAnunciante"`
	Email       string `json:"email"`
	Phone       string `json:"telefone"`
}

// ListingNoticeResult confirms the notification was accepted for delivery.
type ListingNoticeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NotifyNewListing fires the admin notification for a freshly registered
// listing. Delivery is best-effort; the caller always gets a confirmation.
func (s *PartnerService) NotifyNewListing(ctx context.Context, notice ListingNotice) *ListingNoticeResult {
	s.logger.Info("new listing notification requested",
		zap.String("partner_name", notice.PartnerName))

	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.notifier.NewListing(nctx, notice.PartnerName, notice.Email, notice.Phone)
	}()

	return &ListingNoticeResult{Success: true, Message: "Notificação enviada."}
}

// authorizeAdmin admits the configured administrator email or any identity
// carrying the admin role claim.
func authorizeAdmin(caller *model.Identity, adminEmail string) error {
	if caller == nil {
		return apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if (adminEmail != "" && caller.Email == adminEmail) || caller.IsAdmin() {
		return nil
	}
	return apperr.New(apperr.CodePermissionDenied, "administrator access required")
}
