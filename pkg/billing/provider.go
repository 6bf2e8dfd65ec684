// Package billing defines the provider-facing contracts for processing
// subscription lifecycle events from third-party billing services.
package billing

import "net/http"

// Provider is the generic interface a billing backend must implement.
// The Ladle application mounts providers by path without knowing which
// service is behind them.
type Provider interface {
	// Name returns the provider name (e.g., "revenuecat")
	Name() string

	// WebhookHandler returns the HTTP handler that processes real-time
	// subscription events. The implementation handles authentication,
	// parsing, and entitlement updates internally.
	WebhookHandler() http.Handler
}
