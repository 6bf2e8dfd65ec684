package revenuecat

import (
	"fmt"
	"time"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// MapEvent maps a lifecycle event onto the desired entitlement state.
//
// The provider emits intent events (cancel, billing trouble) that must not
// immediately revoke paid access: a cancellation keeps the user pro until
// the already-paid period lapses, and a billing issue holds the entitlement
// through the grace period. Only expiration-class events, or a cancellation
// whose expiry has already passed, flip the user to free.
//
// Pure function of (event type, expiry, now); expirationAtMs <= 0 means the
// event carried no expiry.
func MapEvent(typ EventType, expirationAtMs int64, now time.Time) entitlement.Decision {
	nowMs := now.UnixMilli()

	switch typ {
	case EventInitialPurchase:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "new paid subscription"}
	case EventRenewal:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "subscription renewed"}
	case EventTrialStarted:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "trial grants full access"}
	case EventTrialConverted:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "trial converted to paid"}
	case EventUncancellation:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "subscription reactivated before lapse"}
	case EventProductChange:
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "product changed, entitlement held"}

	case EventExpiration:
		return entitlement.Decision{Action: entitlement.ActionSetFree, Reason: "subscription lapsed"}
	case EventTrialCancelled:
		return entitlement.Decision{Action: entitlement.ActionSetFree, Reason: "trial ended without conversion"}

	case EventBillingIssue:
		// Grace period: the provider retries the charge, access is held
		return entitlement.Decision{Action: entitlement.ActionNoChange, Reason: "billing issue, entitlement held through grace period"}

	case EventNonRenewingPurchase:
		if expirationAtMs > 0 && expirationAtMs <= nowMs {
			return entitlement.Decision{Action: entitlement.ActionSetFree, Reason: "one-time purchase already expired"}
		}
		return entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "one-time purchase"}

	case EventCancellation:
		// Cancellation revokes nothing until the paid period actually lapses
		if expirationAtMs > 0 && expirationAtMs <= nowMs {
			return entitlement.Decision{Action: entitlement.ActionSetFree, Reason: "cancelled and paid period lapsed"}
		}
		return entitlement.Decision{Action: entitlement.ActionNoChange, Reason: "cancelled, access held until paid period lapses"}
	}

	return entitlement.Decision{
		Action: entitlement.ActionReject,
		Reason: fmt.Sprintf("unrecognized event type %q", string(typ)),
	}
}
