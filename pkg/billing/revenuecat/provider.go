// Package revenuecat processes RevenueCat subscription webhooks and applies
// the resulting entitlement transitions to the Ladle user store.
package revenuecat

import (
	"net/http"
	"strings"
	"time"

	"github.com/ladleapp/ladle-billing/pkg/billing"
	"github.com/ladleapp/ladle-billing/pkg/billing/internal"
	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

const (
	providerName = "revenuecat"

	// eventMarkerHeader must be present on genuine webhook deliveries.
	// Presence is the check; the value is not re-validated against the body.
	eventMarkerHeader = "X-RevenueCat-Event"

	defaultMaxBodyBytes      = 256 * 1024
	defaultRateLimitRequests = 100
	defaultRateLimitWindow   = time.Minute
)

// Provider implements billing.Provider for RevenueCat.
type Provider struct {
	adapter      *entitlement.StoreAdapter
	secret       string
	logger       entitlement.Logger
	metrics      billing.Metrics
	ledger       billing.DeliveryLedger
	rateLimiter  *internal.RateLimiter
	maxBodyBytes int64
}

// NewProvider creates a new RevenueCat billing provider.
func NewProvider(config billing.Config) (*Provider, error) {
	adapter, err := entitlement.NewStoreAdapter(config.Store)
	if err != nil {
		return nil, err
	}

	// Operators paste the secret from the provider dashboard with or
	// without the scheme prefix; normalize to the bare secret.
	secret := strings.TrimSpace(config.WebhookSecret)
	if strings.HasPrefix(strings.ToLower(secret), "bearer ") {
		secret = strings.TrimSpace(secret[len("bearer "):])
	}

	logger := config.Logger
	if logger == nil {
		logger = &entitlement.NoopLogger{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &Provider{
		adapter:      adapter,
		secret:       secret,
		logger:       logger,
		metrics:      metrics,
		ledger:       config.Ledger,
		rateLimiter:  internal.NewRateLimiter(defaultRateLimitRequests, defaultRateLimitWindow),
		maxBodyBytes: maxBody,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// WebhookHandler returns the HTTP handler for RevenueCat webhooks.
func (p *Provider) WebhookHandler() http.Handler {
	return p.rateLimiter.Middleware(http.HandlerFunc(p.handleWebhook))
}

// Configured reports whether a webhook secret is provisioned.
func (p *Provider) Configured() bool {
	return p.secret != ""
}
