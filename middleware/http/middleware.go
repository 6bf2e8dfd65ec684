// Package http provides HTTP middleware that gates premium Ladle endpoints
// (meal planner, cookbook export) on the user's pro entitlement.
package http

import (
	"errors"
	"net/http"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// IdentityExtractor extracts the subject identity (email) from a request.
// Return empty string if the user is not authenticated.
type IdentityExtractor func(r *http.Request) string

// Config holds middleware configuration.
type Config struct {
	// Store is the user store entitlements are read from (required)
	Store entitlement.UserStore

	// GetIdentity extracts the subject identity from the request (required)
	GetIdentity IdentityExtractor

	// OnUnauthorized is called when no identity is present or it does not
	// resolve to a user. If nil, returns 401 Unauthorized.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)

	// OnNotPro is called when the user exists but is not pro.
	// If nil, returns 402 Payment Required.
	OnNotPro func(w http.ResponseWriter, r *http.Request, user *entitlement.User)

	// OnError is called when the store lookup fails.
	// If nil, returns 500 Internal Server Error.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// RequirePro creates middleware that only lets pro users through.
func RequirePro(config Config) func(http.Handler) http.Handler {
	if config.Store == nil {
		panic("ladle-billing/middleware/http: Config.Store is required")
	}
	if config.GetIdentity == nil {
		panic("ladle-billing/middleware/http: Config.GetIdentity is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := config.GetIdentity(r)
			if identity == "" {
				unauthorized(config, w, r)
				return
			}

			user, err := config.Store.FindUserByIdentity(r.Context(), identity)
			if err != nil {
				if errors.Is(err, entitlement.ErrUserNotFound) {
					unauthorized(config, w, r)
					return
				}
				if config.OnError != nil {
					config.OnError(w, r, err)
				} else {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
				return
			}

			if !user.IsPro {
				if config.OnNotPro != nil {
					config.OnNotPro(w, r, user)
				} else {
					http.Error(w, "Pro subscription required", http.StatusPaymentRequired)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(config Config, w http.ResponseWriter, r *http.Request) {
	if config.OnUnauthorized != nil {
		config.OnUnauthorized(w, r)
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// Common extractors for convenience

// FromHeader returns an IdentityExtractor that reads a header.
func FromHeader(headerName string) IdentityExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// FromContext returns an IdentityExtractor that reads a context value set by
// the application's session middleware.
func FromContext(key interface{}) IdentityExtractor {
	return func(r *http.Request) string {
		if identity, ok := r.Context().Value(key).(string); ok {
			return identity
		}
		return ""
	}
}
