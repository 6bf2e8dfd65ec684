// Package redis provides a Redis implementation of the
// billing.DeliveryLedger contract using SET NX with a bounded TTL.
//
// The ledger is an optional strengthening on top of the store adapter's
// compare-then-write idempotence: under heavy redelivery it short-circuits
// duplicate event ids before any user-store round trip.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger implements billing.DeliveryLedger using Redis.
type Ledger struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis ledger configuration.
type Config struct {
	// KeyPrefix is prepended to all ledger keys (default: "ladle:webhook:")
	KeyPrefix string

	// Retention is how long event ids are remembered (default: 24h).
	// Events redelivered outside the window are processed normally, which
	// is safe: the entitlement write itself is idempotent.
	Retention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "ladle:webhook:",
		Retention: 24 * time.Hour,
	}
}

// New creates a new Redis delivery ledger.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Ledger, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ladle:webhook:"
	}
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}
	return &Ledger{client: client, config: config}, nil
}

// SeenEvent implements billing.DeliveryLedger. SET NX records the id and
// reports atomically whether it already existed, so two concurrent
// deliveries of the same event cannot both claim first sight.
func (l *Ledger) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	created, err := l.client.SetNX(ctx, l.config.KeyPrefix+eventID, 1, l.config.Retention).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event id: %w", err)
	}
	return !created, nil
}
