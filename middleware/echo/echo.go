// Package echo provides Echo middleware that gates premium Ladle endpoints
// on the user's pro entitlement.
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// IdentityExtractor extracts the subject identity (email) from an Echo
// context. Return empty string if the user is not authenticated.
type IdentityExtractor func(c echo.Context) string

// Config holds middleware configuration.
type Config struct {
	// Store is the user store entitlements are read from (required)
	Store entitlement.UserStore

	// GetIdentity extracts the subject identity from the context (required)
	GetIdentity IdentityExtractor

	// OnUnauthorized is called when no identity is present or it does not
	// resolve to a user. If nil, returns 401 Unauthorized.
	OnUnauthorized func(c echo.Context) error

	// OnNotPro is called when the user exists but is not pro.
	// If nil, returns 402 Payment Required.
	OnNotPro func(c echo.Context, user *entitlement.User) error

	// OnError is called when the store lookup fails.
	// If nil, returns 500 Internal Server Error.
	OnError func(c echo.Context, err error) error
}

// RequirePro creates an Echo middleware that only lets pro users through.
func RequirePro(cfg Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		panic("ladle-billing/echo: Config.Store is required")
	}
	if cfg.GetIdentity == nil {
		panic("ladle-billing/echo: Config.GetIdentity is required")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := cfg.GetIdentity(c)
			if identity == "" {
				return unauthorized(cfg, c)
			}

			user, err := cfg.Store.FindUserByIdentity(c.Request().Context(), identity)
			if err != nil {
				if errors.Is(err, entitlement.ErrUserNotFound) {
					return unauthorized(cfg, c)
				}
				if cfg.OnError != nil {
					return cfg.OnError(c, err)
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
			}

			if !user.IsPro {
				if cfg.OnNotPro != nil {
					return cfg.OnNotPro(c, user)
				}
				return c.JSON(http.StatusPaymentRequired, map[string]string{"error": "Pro subscription required"})
			}

			return next(c)
		}
	}
}

func unauthorized(cfg Config, c echo.Context) error {
	if cfg.OnUnauthorized != nil {
		return cfg.OnUnauthorized(c)
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}

// FromHeader returns an IdentityExtractor that reads a header.
func FromHeader(headerName string) IdentityExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(headerName)
	}
}

// FromContext returns an IdentityExtractor that reads an Echo context value
// set by the application's session middleware (c.Set("userEmail", ...)).
func FromContext(key string) IdentityExtractor {
	return func(c echo.Context) string {
		if str, ok := c.Get(key).(string); ok {
			return str
		}
		return ""
	}
}
