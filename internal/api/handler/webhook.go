package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/profile"
	"github.com/covecrm/cove/internal/webhook"
)

const maxWebhookBytes = 64 << 10

// WebhookHandler handles signed events from the payment provider.
// Signature verification precedes any processing; a rejected event has no
// side effects.
type WebhookHandler struct {
	secret    []byte
	profiles  profile.Repository
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(secret []byte, profiles profile.Repository) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		profiles:  profiles,
		tolerance: webhook.DefaultTolerance,
		now:       time.Now,
	}
}

// Payment handles POST /webhooks/payment.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "Failed to read request body", requestID)
		return
	}

	sig := r.Header.Get(webhook.SignatureHeader)
	if err := webhook.VerifySignature(sig, body, h.secret, h.now(), h.tolerance); err != nil {
		slog.Warn("rejected payment webhook", "error", err, "requestId", requestID)
		response.Err(w, http.StatusBadRequest, "Invalid webhook signature", requestID)
		return
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "Invalid webhook payload", requestID)
		return
	}

	switch event.Type {
	case webhook.EventSubscriptionActivated:
		err = h.updatePlan(r, event.Data.CustomerEmail, profile.PlanPro)
	case webhook.EventSubscriptionCanceled:
		err = h.updatePlan(r, event.Data.CustomerEmail, profile.PlanFree)
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		slog.Info("ignoring payment webhook event", "type", event.Type, "requestId", requestID)
	}
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			// No matching account; acknowledge rather than provoke retries.
			slog.Warn("payment webhook for unknown customer", "type", event.Type, "requestId", requestID)
		} else {
			slog.Error("failed to process payment webhook", "error", err, "type", event.Type, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to process event", requestID)
			return
		}
	}

	response.Success(w, http.StatusOK, nil, requestID)
}

func (h *WebhookHandler) updatePlan(r *http.Request, email, plan string) error {
	if email == "" {
		return profile.ErrNotFound
	}
	return h.profiles.UpdatePlanByEmail(r.Context(), email, plan)
}
