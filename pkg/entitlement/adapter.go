package entitlement

import (
	"context"
	"fmt"
	"strings"
)

// StoreAdapter applies entitlement decisions to a UserStore idempotently.
// The compare-then-write is not atomic against concurrent writers elsewhere
// in the application; it only has to be a safe no-op under redelivery of the
// same event, which the comparison guarantees.
type StoreAdapter struct {
	store UserStore
}

// NewStoreAdapter creates a StoreAdapter backed by the given store.
func NewStoreAdapter(store UserStore) (*StoreAdapter, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	return &StoreAdapter{store: store}, nil
}

// ApplyDecision resolves the subject identity and writes the desired
// entitlement if it differs from the stored value.
//
// The identity is lower-cased before lookup to match how emails are captured
// upstream. NoChange and Reject decisions never write. A repeat delivery of
// an already-applied decision returns Applied=false with no write issued.
func (a *StoreAdapter) ApplyDecision(ctx context.Context, subjectIdentity string, decision Decision) (Outcome, error) {
	identity := strings.ToLower(strings.TrimSpace(subjectIdentity))
	if identity == "" {
		return Outcome{}, ErrInvalidIdentity
	}

	user, err := a.store.FindUserByIdentity(ctx, identity)
	if err != nil {
		return Outcome{}, err
	}
	if user == nil {
		return Outcome{}, ErrUserNotFound
	}

	if decision.Action == ActionNoChange || decision.Action == ActionReject {
		return Outcome{Applied: false, UserID: user.ID}, nil
	}

	desired := decision.DesiredPro()
	if user.IsPro == desired {
		// Already in the desired state: redelivery or concurrent apply
		return Outcome{Applied: false, UserID: user.ID}, nil
	}

	if err := a.store.SetIsPro(ctx, user.ID, desired); err != nil {
		return Outcome{}, fmt.Errorf("failed to update entitlement: %w", err)
	}

	return Outcome{Applied: true, UserID: user.ID}, nil
}
