package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/metrics"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/payment"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// PaymentGateway is the slice of the Mercado Pago client the workflows use.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, pref payment.Preference) (string, error)
	Payment(ctx context.Context, id string) (*payment.Payment, error)
}

// PaymentService translates between the platform and the payment gateway.
type PaymentService struct {
	gateway         PaymentGateway
	partners        store.PartnerStore
	siteURL         string
	notificationURL string
	logger          *zap.Logger
	now             func() time.Time
}

// NewPaymentService creates the payment workflow service.
func NewPaymentService(gateway PaymentGateway, partners store.PartnerStore, siteURL, notificationURL string, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway:         gateway,
		partners:        partners,
		siteURL:         siteURL,
		notificationURL: notificationURL,
		logger:          logger,
		now:             time.Now,
	}
}

// PreferenceRequest is the payload of the create-payment-preference call.
type PreferenceRequest struct {
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	UserID string  `json:"userId"`
	Plan   string  `json:"plan"`
}

// PreferenceResult carries the gateway's preference id back to the frontend.
type PreferenceResult struct {
	PreferenceID string `json:"preferenceId"`
}

// externalReference rides through the gateway and comes back on the webhook,
// linking the payment to the partner and plan it buys.
type externalReference struct {
	UserID string `json:"userId"`
	Plan   string `json:"plan"`
}

// CreatePreference registers a checkout preference for a plan purchase.
func (s *PaymentService) CreatePreference(ctx context.Context, caller *model.Identity, req PreferenceRequest) (*PreferenceResult, error) {
	if caller == nil {
		return nil, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if req.Title == "" || req.UserID == "" || req.Plan == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "title, userId and plan are required")
	}
	if req.Price <= 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "price must be positive")
	}

	ref, err := json.Marshal(externalReference{UserID: req.UserID, Plan: req.Plan})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not create payment preference", err)
	}

	pref := payment.Preference{
		Items: []payment.Item{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  req.Price,
			CurrencyID: "BRL",
		}},
		BackURLs: payment.BackURLs{
			Success: s.siteURL + "/success.html",
			Failure: s.siteURL + "/failure.html",
			Pending: s.siteURL + "/pending.html",
		},
		AutoReturn:        "approved",
		ExternalReference: string(ref),
		NotificationURL:   s.notificationURL,
	}

	id, err := s.gateway.CreatePreference(ctx, pref)
	if err != nil {
		s.logger.Error("preference creation failed",
			zap.String("user_id", req.UserID), zap.String("plan", req.Plan), zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInternal, "could not create payment preference", err)
	}

	s.logger.Info("payment preference created",
		zap.String("user_id", req.UserID), zap.String("plan", req.Plan), zap.String("preference_id", id))

	return &PreferenceResult{PreferenceID: id}, nil
}

// HandleWebhook processes one payment-provider notification. Topics other
// than payment, and payments that are not approved, are acknowledged without
// any mutation. The transport layer answers 2xx no matter what this returns.
func (s *PaymentService) HandleWebhook(ctx context.Context, topic, paymentID string) error {
	if topic != "payment" || paymentID == "" {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	p, err := s.gateway.Payment(ctx, paymentID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}

	if p.Status != "approved" {
		s.logger.Info("ignoring non-approved payment",
			zap.String("payment_id", paymentID), zap.String("status", p.Status))
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	var ref externalReference
	if err := json.Unmarshal([]byte(p.ExternalReference), &ref); err != nil || ref.UserID == "" || ref.Plan == "" {
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("payment %s carries an invalid external reference", paymentID)
	}

	if err := s.partners.ApplyPayment(ctx, ref.UserID, ref.Plan, paymentID, s.now()); err != nil {
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to record payment %s: %w", paymentID, err)
	}

	metrics.WebhookEvents.WithLabelValues("processed").Inc()
	s.logger.Info("partner plan activated",
		zap.String("partner_key", ref.UserID), zap.String("plan", ref.Plan),
		zap.String("payment_id", paymentID))

	return nil
}
