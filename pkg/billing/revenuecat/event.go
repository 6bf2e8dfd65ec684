package revenuecat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ladleapp/ladle-billing/pkg/billing"
)

// EventType is the closed set of subscription lifecycle notifications the
// provider emits. Anything outside this set maps to a rejection, never a
// crash or a silent default.
type EventType string

const (
	EventInitialPurchase     EventType = "INITIAL_PURCHASE"
	EventRenewal             EventType = "RENEWAL"
	EventTrialStarted        EventType = "TRIAL_STARTED"
	EventTrialConverted      EventType = "TRIAL_CONVERTED"
	EventTrialCancelled      EventType = "TRIAL_CANCELLED"
	EventUncancellation      EventType = "UNCANCELLATION"
	EventCancellation        EventType = "CANCELLATION"
	EventExpiration          EventType = "EXPIRATION"
	EventBillingIssue        EventType = "BILLING_ISSUE"
	EventProductChange       EventType = "PRODUCT_CHANGE"
	EventNonRenewingPurchase EventType = "NON_RENEWING_PURCHASE"
)

// Environment identifies which provider environment produced the event.
// Informational only; filtering sandbox traffic is a deployment policy.
type Environment string

const (
	EnvironmentProduction Environment = "PRODUCTION"
	EnvironmentSandbox    Environment = "SANDBOX"
)

// Event is one decoded webhook notification. Constructed once per delivery,
// immutable, never persisted.
type Event struct {
	// ID is the provider-assigned delivery identifier. Unique per delivery
	// attempt, not necessarily per logical event.
	ID string

	// Type is the lifecycle event type
	Type EventType

	// AppUserID is the provider-side user identifier (informational)
	AppUserID string

	// SubjectEmail is the identity attribute used to resolve the Ladle user
	SubjectEmail string

	// ProductID, TransactionID and OriginalTransactionID are opaque
	// provider identifiers carried for logging
	ProductID             string
	TransactionID         string
	OriginalTransactionID string

	// ExpirationAtMs is the epoch-millisecond expiry of the paid period.
	// Zero or negative means absent.
	ExpirationAtMs int64

	// Environment is PRODUCTION or SANDBOX
	Environment Environment
}

// emailAttributeKey is the subscriber attribute carrying the account email.
const emailAttributeKey = "$email"

type subscriberAttribute struct {
	Value string `json:"value"`
}

// webhookPayload mirrors the provider wire format. Unknown fields are
// deliberately ignored so new provider fields never break decoding.
type webhookPayload struct {
	APIVersion string `json:"api_version"`

	Event struct {
		ID                    string                         `json:"id"`
		Type                  string                         `json:"type"`
		AppUserID             string                         `json:"app_user_id"`
		ProductID             string                         `json:"product_id"`
		TransactionID         string                         `json:"transaction_id"`
		OriginalTransactionID string                         `json:"original_transaction_id"`
		ExpirationAtMs        int64                          `json:"expiration_at_ms"`
		Environment           string                         `json:"environment"`
		SubscriberAttributes  map[string]subscriberAttribute `json:"subscriber_attributes"`
	} `json:"event"`
}

// DecodeEvent parses and structurally validates a raw webhook body.
//
// A body that is not well-formed JSON fails with billing.ErrMalformedPayload;
// a well-formed body missing the event type, event id, or subject email (or
// carrying them with the wrong JSON type) fails with
// billing.ErrInvalidEventShape. Decoding is total and side-effect free.
func DecodeEvent(body []byte) (*Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: field %q has wrong type", billing.ErrInvalidEventShape, typeErr.Field)
		}
		return nil, fmt.Errorf("%w: %v", billing.ErrMalformedPayload, err)
	}

	raw := payload.Event

	eventType := strings.TrimSpace(raw.Type)
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", billing.ErrInvalidEventShape)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: missing event id", billing.ErrInvalidEventShape)
	}

	email := strings.TrimSpace(raw.SubscriberAttributes[emailAttributeKey].Value)
	if email == "" {
		return nil, fmt.Errorf("%w: missing subscriber email attribute", billing.ErrInvalidEventShape)
	}

	return &Event{
		ID:                    strings.TrimSpace(raw.ID),
		Type:                  EventType(eventType),
		AppUserID:             strings.TrimSpace(raw.AppUserID),
		SubjectEmail:          email,
		ProductID:             strings.TrimSpace(raw.ProductID),
		TransactionID:         strings.TrimSpace(raw.TransactionID),
		OriginalTransactionID: strings.TrimSpace(raw.OriginalTransactionID),
		ExpirationAtMs:        raw.ExpirationAtMs,
		Environment:           Environment(strings.ToUpper(strings.TrimSpace(raw.Environment))),
	}, nil
}
