// Package entitlement defines the core entitlement model for Ladle users and
// the store contract the billing webhook processors write through.
package entitlement

import "context"

// User is the slice of the Ladle user record the billing core touches.
// The rest of the user document (profile, recipes, friendships) is owned by
// the main application and never read or written here.
type User struct {
	// ID is the internal user identifier
	ID string

	// Email is the identity attribute billing events are keyed by
	Email string

	// IsPro is the entitlement flag: true grants full access
	IsPro bool
}

// UserStore is the contract the external persistence layer must satisfy for
// entitlement processing. Implementations live under storage/.
type UserStore interface {
	// FindUserByIdentity resolves a lower-cased email to a user record.
	// Returns ErrUserNotFound when no user matches.
	FindUserByIdentity(ctx context.Context, identity string) (*User, error)

	// SetIsPro updates the entitlement flag for the given user.
	SetIsPro(ctx context.Context, userID string, isPro bool) error
}

// Outcome reports the result of applying a decision to the store.
type Outcome struct {
	// Applied is true when a write was issued, false when the stored value
	// already matched (redelivery) or the decision required no change.
	Applied bool

	// UserID is the resolved internal user identifier
	UserID string
}
