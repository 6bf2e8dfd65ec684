package billing

import "context"

// DeliveryLedger records provider event ids for a bounded retention window
// so redeliveries can be short-circuited before any store access.
//
// This is a strengthening beyond the provider contract: entitlement writes
// are already idempotent via the store adapter's compare-then-write, so a
// ledger is only worth running when redelivery volume under load justifies
// the extra round trip. Ledger failures must not fail the delivery; callers
// fall through to normal processing.
type DeliveryLedger interface {
	// SeenEvent records eventID and reports whether it had been recorded
	// before within the retention window.
	SeenEvent(ctx context.Context, eventID string) (bool, error)
}
