package entitlement

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the subject identity
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidIdentity is returned for an empty subject identity
	ErrInvalidIdentity = errors.New("invalid subject identity")

	// ErrStorageUnavailable is returned when the user store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")
)
