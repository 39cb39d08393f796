// Package httpapi exposes the platform's callable, event and webhook surface.
// Callable endpoints speak the hosting platform's JSON envelope: requests are
// {"auth": ..., "data": ...}, responses are {"result": ...} or {"error": ...}.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/metrics"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/service"
)

// The provider retries undelivered webhooks aggressively. Excess deliveries
// are acknowledged without processing and picked up on the next retry cycle.
const (
	webhookRate  = 20 // payment lookups per second
	webhookBurst = 40
)

// Handler routes the HTTP surface to the workflow services.
type Handler struct {
	partners       *service.PartnerService
	promotions     *service.PromotionService
	payments       *service.PaymentService
	stats          *service.StatsService
	logger         *zap.Logger
	webhookLimiter *rate.Limiter
}

// NewHandler creates the HTTP handler.
func NewHandler(partners *service.PartnerService, promotions *service.PromotionService, payments *service.PaymentService, stats *service.StatsService, logger *zap.Logger) *Handler {
	return &Handler{
		partners:       partners,
		promotions:     promotions,
		payments:       payments,
		stats:          stats,
		logger:         logger,
		webhookLimiter: rate.NewLimiter(rate.Limit(webhookRate), webhookBurst),
	}
}

// Register mounts every route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/call/approvePartner", h.handleCall(h.approvePartner))
	mux.HandleFunc("/call/createPaymentPreference", h.handleCall(h.createPaymentPreference))
	mux.HandleFunc("/call/notifyNewListing", h.handleCall(h.notifyNewListing))
	mux.HandleFunc("/call/generateItinerary", h.handleCall(h.generateItinerary))
	mux.HandleFunc("/call/platformStats", h.handleCall(h.platformStats))
	mux.HandleFunc("/events/userCreated", h.handleUserCreated)
	mux.HandleFunc("/webhooks/mercadopago", h.handleMercadoPagoWebhook)
}

// callEnvelope is the platform's callable request envelope. Auth is absent
// for unauthenticated calls.
type callEnvelope struct {
	Auth *model.Identity `json:"auth"`
	Data json.RawMessage `json:"data"`
}

type callFunc func(r *http.Request, caller *model.Identity, data json.RawMessage) (any, error)

func (h *Handler) handleCall(fn callFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		callID := uuid.NewString()

		var env callEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			h.writeError(w, callID, apperr.Wrap(apperr.CodeInvalidArgument, "invalid request body", err))
			return
		}

		result, err := fn(r, env.Auth, env.Data)
		if err != nil {
			h.writeError(w, callID, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}

func (h *Handler) approvePartner(r *http.Request, caller *model.Identity, data json.RawMessage) (any, error) {
	var req struct {
		PartnerKey string `json:"partnerKey"`
	}
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}
	return h.partners.Approve(r.Context(), caller, req.PartnerKey)
}

func (h *Handler) createPaymentPreference(r *http.Request, caller *model.Identity, data json.RawMessage) (any, error) {
	var req service.PreferenceRequest
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}
	return h.payments.CreatePreference(r.Context(), caller, req)
}

func (h *Handler) notifyNewListing(r *http.Request, _ *model.Identity, data json.RawMessage) (any, error) {
	var notice service.ListingNotice
	if err := decodeData(data, &notice); err != nil {
		return nil, err
	}
	return h.partners.NotifyNewListing(r.Context(), notice), nil
}

func (h *Handler) generateItinerary(_ *http.Request, _ *model.Identity, data json.RawMessage) (any, error) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeData(data, &req); err != nil {
		return nil, err
	}
	return service.GenerateItinerary(req.Prompt)
}

func (h *Handler) platformStats(r *http.Request, caller *model.Identity, _ json.RawMessage) (any, error) {
	return h.stats.Collect(r.Context(), caller)
}

// userCreatedEvent is the document-created trigger envelope.
type userCreatedEvent struct {
	DocumentSnapshot model.User `json:"documentSnapshot"`
	Params           struct {
		ID string `json:"id"`
	} `json:"params"`
}

// handleUserCreated feeds user-creation events to the promotion workflow.
// Event triggers have no caller to answer: the delivery is acknowledged with
// 200 regardless of the processing outcome, failures are only logged.
func (h *Handler) handleUserCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := uuid.NewString()

	var event userCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Error("malformed user created event",
			zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	user := event.DocumentSnapshot
	if event.Params.ID != "" {
		user.ID = event.Params.ID
	}

	if err := h.promotions.HandleUserCreated(r.Context(), user); err != nil {
		h.logger.Error("user created event processing failed",
			zap.String("event_id", eventID), zap.String("user_id", user.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// webhookBody is the notification body variant of the provider's delivery;
// topic and id may arrive as query parameters instead.
type webhookBody struct {
	Topic string `json:"topic"`
	Data  struct {
		ID string `json:"id"`
	} `json:"data"`
}

// handleMercadoPagoWebhook acknowledges provider notifications. The provider
// expects a fast 2xx on every delivery; processing failures are logged and
// the delivery is still acknowledged.
func (h *Handler) handleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	deliveryID := uuid.NewString()

	topic := r.URL.Query().Get("topic")
	paymentID := r.URL.Query().Get("id")
	if topic == "" || paymentID == "" {
		var body webhookBody
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if topic == "" {
				topic = body.Topic
			}
			if paymentID == "" {
				paymentID = body.Data.ID
			}
		}
	}

	if !h.webhookLimiter.Allow() {
		metrics.WebhookEvents.WithLabelValues("shed").Inc()
		h.logger.Warn("webhook delivery shed",
			zap.String("delivery_id", deliveryID), zap.String("topic", topic))
		writeJSON(w, http.StatusOK, map[string]string{"status": "deferred"})
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), topic, paymentID); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("delivery_id", deliveryID),
			zap.String("payment_id", paymentID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid request data", err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, callID string, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		h.logger.Error("call failed", zap.String("call_id", callID), zap.Error(err))
	}
	writeJSON(w, apperr.HTTPStatus(code), map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": apperr.MessageOf(err),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
