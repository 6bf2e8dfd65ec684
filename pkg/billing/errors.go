package billing

import "errors"

var (
	// ErrWebhookNotConfigured is returned when the shared webhook secret is
	// not provisioned. Deliveries cannot be authenticated without it.
	ErrWebhookNotConfigured = errors.New("webhook secret not configured")

	// ErrInvalidSignature is returned when the authorization header does not
	// match the expected bearer secret
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMissingEventHeader is returned when the provider event-marker header
	// is absent from a delivery
	ErrMissingEventHeader = errors.New("missing event marker header")

	// ErrMalformedPayload is returned when the body is not well-formed JSON
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrInvalidEventShape is returned when required event fields are missing
	// or of the wrong type
	ErrInvalidEventShape = errors.New("invalid event shape")

	// ErrUnrecognizedEventType is returned for event types outside the known
	// subscription lifecycle set
	ErrUnrecognizedEventType = errors.New("unrecognized event type")
)
