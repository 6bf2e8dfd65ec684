package revenuecat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ladleapp/ladle-billing/pkg/billing/internal"
	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// errorResponse is the body for authentication and structural failures,
// the only classes allowed to produce non-2xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ackResponse is the body for every delivery that passed authentication and
// structural validation. Success=false is an acknowledgment, not an error:
// the provider retries non-2xx responses, and retrying a permanently
// unprocessable event (deleted user, unknown type) only produces redelivery
// storms. The provider must not retry 2xx regardless of the embedded flag.
type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// healthResponse answers GET probes on the webhook path.
type healthResponse struct {
	Status            string `json:"status"`
	WebhookConfigured bool   `json:"webhookConfigured"`
}

// handleWebhook processes one webhook delivery.
//
// Delivery lifecycle: authenticate, check the event marker header, decode,
// map, apply. Steps one and two may fail with 401/400 because those failures
// are deterministic configuration problems the caller should see. Everything
// after that is acknowledged with 200.
func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	setSecurityHeaders(w)

	switch r.Method {
	case http.MethodGet:
		p.handleHealth(w)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if p.secret == "" {
		p.metrics.RecordWebhookError(providerName, "not_configured")
		p.logger.Error("webhook delivery received but no secret is configured")
		p.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "configuration error",
			Message: "webhook secret not configured",
		})
		return
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		p.metrics.RecordWebhookError(providerName, "auth_failed")
		p.writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:   "unauthorized",
			Code:    "missing_authorization",
			Message: "authorization header required",
		})
		return
	}
	if !VerifySignature(authHeader, p.secret) {
		p.metrics.RecordWebhookError(providerName, "auth_failed")
		p.logger.Warn("webhook delivery rejected: invalid signature",
			entitlement.Field{Key: "remote_ip", Value: internal.ClientIP(r)})
		p.writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:   "unauthorized",
			Code:    "invalid_signature",
			Message: "invalid webhook signature",
		})
		return
	}

	// Signature alone does not prove this is a webhook delivery; require the
	// provider's event marker so replayed non-webhook payloads are refused.
	if strings.TrimSpace(r.Header.Get(eventMarkerHeader)) == "" {
		p.metrics.RecordWebhookError(providerName, "missing_event_header")
		p.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad request",
			Message: "missing " + eventMarkerHeader + " header",
		})
		return
	}

	body, err := internal.ReadBody(w, r, p.maxBodyBytes)
	if err != nil {
		if errors.Is(err, internal.ErrPayloadTooLarge) {
			p.metrics.RecordWebhookError(providerName, "payload_too_large")
			p.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:   "bad request",
				Message: "payload too large",
			})
			return
		}
		p.metrics.RecordWebhookError(providerName, "invalid_payload")
		p.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad request",
			Message: "unreadable request body",
		})
		return
	}

	event, err := DecodeEvent(body)
	if err != nil {
		p.metrics.RecordWebhookError(providerName, "invalid_payload")
		p.logger.Warn("webhook payload failed validation", entitlement.Field{Key: "error", Value: err.Error()})
		p.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad request",
			Message: err.Error(),
		})
		return
	}

	ack := p.processEvent(r.Context(), event)
	p.writeJSON(w, http.StatusOK, ack)

	status := "success"
	if !ack.Success {
		status = "error"
	}
	p.metrics.RecordWebhookEvent(providerName, string(event.Type), status)
	p.metrics.RecordWebhookProcessingDuration(providerName, string(event.Type), time.Since(startTime))
}

// processEvent maps and applies one decoded event. Every failure past this
// point is folded into a success-flagged acknowledgment; a panic in the
// store layer must not turn into a 500 and trigger provider redelivery.
func (p *Provider) processEvent(ctx context.Context, event *Event) (ack ackResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			p.metrics.RecordWebhookError(providerName, "processing_panic")
			p.logger.Error("panic while processing webhook event",
				entitlement.Field{Key: "event_id", Value: event.ID},
				entitlement.Field{Key: "panic", Value: rec})
			ack = ackResponse{Success: false, Message: "internal error"}
		}
	}()

	if p.ledger != nil && event.ID != "" {
		seen, err := p.ledger.SeenEvent(ctx, event.ID)
		if err != nil {
			// Ledger trouble must not block the delivery; the store
			// adapter's compare-then-write stays idempotent without it.
			p.logger.Warn("delivery ledger unavailable",
				entitlement.Field{Key: "error", Value: err.Error()})
		} else if seen {
			p.logger.Info("duplicate delivery ignored",
				entitlement.Field{Key: "event_id", Value: event.ID},
				entitlement.Field{Key: "event_type", Value: string(event.Type)})
			return ackResponse{Success: true, Message: "duplicate delivery ignored"}
		}
	}

	decision := MapEvent(event.Type, event.ExpirationAtMs, time.Now())
	if decision.Action == entitlement.ActionReject {
		p.metrics.RecordWebhookError(providerName, "unrecognized_event_type")
		p.logger.Warn("unrecognized webhook event type",
			entitlement.Field{Key: "event_id", Value: event.ID},
			entitlement.Field{Key: "event_type", Value: string(event.Type)})
		return ackResponse{Success: false, Message: "unrecognized event type: " + string(event.Type)}
	}

	outcome, err := p.adapter.ApplyDecision(ctx, event.SubjectEmail, decision)
	if err != nil {
		if errors.Is(err, entitlement.ErrUserNotFound) {
			// The identity will never resolve; acknowledge so the provider
			// stops redelivering.
			p.metrics.RecordWebhookError(providerName, "user_not_found")
			p.logger.Warn("webhook event for unknown user",
				entitlement.Field{Key: "event_id", Value: event.ID},
				entitlement.Field{Key: "event_type", Value: string(event.Type)})
			return ackResponse{Success: false, Message: "User not found"}
		}
		p.metrics.RecordWebhookError(providerName, "storage_error")
		p.logger.Error("failed to apply entitlement decision",
			entitlement.Field{Key: "event_id", Value: event.ID},
			entitlement.Field{Key: "event_type", Value: string(event.Type)},
			entitlement.Field{Key: "error", Value: err.Error()})
		return ackResponse{Success: false, Message: "failed to apply entitlement update"}
	}

	if outcome.Applied {
		direction := "revoked"
		if decision.DesiredPro() {
			direction = "granted"
		}
		p.metrics.RecordEntitlementChange(providerName, direction)
	}

	p.logger.Info("webhook event processed",
		entitlement.Field{Key: "event_id", Value: event.ID},
		entitlement.Field{Key: "event_type", Value: string(event.Type)},
		entitlement.Field{Key: "user_id", Value: outcome.UserID},
		entitlement.Field{Key: "action", Value: string(decision.Action)},
		entitlement.Field{Key: "reason", Value: decision.Reason},
		entitlement.Field{Key: "applied", Value: outcome.Applied})

	return ackResponse{Success: true, Message: decision.Reason}
}

// handleHealth answers GET probes with webhook configuration status.
func (p *Provider) handleHealth(w http.ResponseWriter) {
	p.writeJSON(w, http.StatusOK, healthResponse{
		Status:            "ok",
		WebhookConfigured: p.Configured(),
	})
}

func (p *Provider) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	if err := internal.WriteJSON(w, code, data); err != nil {
		p.logger.Error("failed to write webhook response",
			entitlement.Field{Key: "error", Value: err.Error()})
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
