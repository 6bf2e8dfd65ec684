package billing

import (
	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// Config defines the standard configuration all providers accept.
type Config struct {
	// Store is the user store entitlement decisions are applied to (required)
	Store entitlement.UserStore

	// WebhookSecret authenticates inbound deliveries. Accepted with or
	// without a leading "Bearer " prefix; stored without it. Never logged.
	WebhookSecret string

	// Logger is an optional structured logger. If nil, logging is a no-op.
	Logger entitlement.Logger

	// Metrics is an optional metrics collector for webhook processing.
	// If nil, metrics are silently ignored.
	Metrics Metrics

	// Ledger is an optional delivery-deduplication ledger keyed by event id.
	// If nil, duplicate deliveries are handled solely by the store adapter's
	// compare-then-write, which is the provider's documented behavior.
	Ledger DeliveryLedger

	// MaxBodyBytes caps the webhook request body size. Defaults to 256KB,
	// a safe upper bound for provider payloads.
	MaxBodyBytes int64
}
