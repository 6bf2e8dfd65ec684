// Package gin provides Gin middleware that gates premium Ladle endpoints on
// the user's pro entitlement.
package gin

import (
	"errors"
	"net/http"

	gongin "github.com/gin-gonic/gin"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// IdentityExtractor extracts the subject identity (email) from a Gin context.
// Return empty string if the user is not authenticated.
type IdentityExtractor func(c *gongin.Context) string

// Config holds middleware configuration.
type Config struct {
	// Store is the user store entitlements are read from (required)
	Store entitlement.UserStore

	// GetIdentity extracts the subject identity from the context (required)
	GetIdentity IdentityExtractor

	// OnUnauthorized is called when no identity is present or it does not
	// resolve to a user. If nil, returns 401 Unauthorized.
	OnUnauthorized func(c *gongin.Context)

	// OnNotPro is called when the user exists but is not pro.
	// If nil, returns 402 Payment Required.
	OnNotPro func(c *gongin.Context, user *entitlement.User)

	// OnError is called when the store lookup fails.
	// If nil, returns 500 Internal Server Error.
	OnError func(c *gongin.Context, err error)
}

// RequirePro creates a Gin middleware that only lets pro users through.
func RequirePro(cfg Config) gongin.HandlerFunc {
	if cfg.Store == nil {
		panic("ladle-billing/gin: Config.Store is required")
	}
	if cfg.GetIdentity == nil {
		panic("ladle-billing/gin: Config.GetIdentity is required")
	}

	return func(c *gongin.Context) {
		identity := cfg.GetIdentity(c)
		if identity == "" {
			unauthorized(cfg, c)
			c.Abort()
			return
		}

		user, err := cfg.Store.FindUserByIdentity(c.Request.Context(), identity)
		if err != nil {
			if errors.Is(err, entitlement.ErrUserNotFound) {
				unauthorized(cfg, c)
			} else if cfg.OnError != nil {
				cfg.OnError(c, err)
			} else {
				c.JSON(http.StatusInternalServerError, gongin.H{"error": "Internal Server Error"})
			}
			c.Abort()
			return
		}

		if !user.IsPro {
			if cfg.OnNotPro != nil {
				cfg.OnNotPro(c, user)
			} else {
				c.JSON(http.StatusPaymentRequired, gongin.H{"error": "Pro subscription required"})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

func unauthorized(cfg Config, c *gongin.Context) {
	if cfg.OnUnauthorized != nil {
		cfg.OnUnauthorized(c)
		return
	}
	c.JSON(http.StatusUnauthorized, gongin.H{"error": "Unauthorized"})
}

// FromContext returns an IdentityExtractor that reads a Gin context value set
// by the application's session middleware (c.Set("UserEmail", ...)).
func FromContext(key string) IdentityExtractor {
	return func(c *gongin.Context) string {
		if val, exists := c.Get(key); exists {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns an IdentityExtractor that reads a header.
func FromHeader(headerName string) IdentityExtractor {
	return func(c *gongin.Context) string {
		return c.GetHeader(headerName)
	}
}
