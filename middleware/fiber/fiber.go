// Package fiber provides Fiber middleware that gates premium Ladle endpoints
// on the user's pro entitlement.
package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// IdentityExtractor extracts the subject identity (email) from a Fiber
// context. Return empty string if the user is not authenticated.
type IdentityExtractor func(c *fiber.Ctx) string

// Config holds middleware configuration.
type Config struct {
	// Store is the user store entitlements are read from (required)
	Store entitlement.UserStore

	// GetIdentity extracts the subject identity from the context (required)
	GetIdentity IdentityExtractor

	// OnUnauthorized is called when no identity is present or it does not
	// resolve to a user. If nil, returns 401 Unauthorized.
	OnUnauthorized func(c *fiber.Ctx) error

	// OnNotPro is called when the user exists but is not pro.
	// If nil, returns 402 Payment Required.
	OnNotPro func(c *fiber.Ctx, user *entitlement.User) error

	// OnError is called when the store lookup fails.
	// If nil, returns 500 Internal Server Error.
	OnError func(c *fiber.Ctx, err error) error
}

// RequirePro creates a Fiber middleware that only lets pro users through.
func RequirePro(cfg Config) fiber.Handler {
	if cfg.Store == nil {
		panic("ladle-billing/fiber: Config.Store is required")
	}
	if cfg.GetIdentity == nil {
		panic("ladle-billing/fiber: Config.GetIdentity is required")
	}

	return func(c *fiber.Ctx) error {
		identity := cfg.GetIdentity(c)
		if identity == "" {
			return unauthorized(cfg, c)
		}

		user, err := cfg.Store.FindUserByIdentity(c.UserContext(), identity)
		if err != nil {
			if errors.Is(err, entitlement.ErrUserNotFound) {
				return unauthorized(cfg, c)
			}
			if cfg.OnError != nil {
				return cfg.OnError(c, err)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		if !user.IsPro {
			if cfg.OnNotPro != nil {
				return cfg.OnNotPro(c, user)
			}
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Pro subscription required"})
		}

		return c.Next()
	}
}

func unauthorized(cfg Config, c *fiber.Ctx) error {
	if cfg.OnUnauthorized != nil {
		return cfg.OnUnauthorized(c)
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

// FromHeader returns an IdentityExtractor that reads a header.
func FromHeader(headerName string) IdentityExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(headerName)
	}
}

// FromLocals returns an IdentityExtractor that reads a Fiber locals value set
// by the application's session middleware (c.Locals("userEmail", ...)).
func FromLocals(key string) IdentityExtractor {
	return func(c *fiber.Ctx) string {
		if str, ok := c.Locals(key).(string); ok {
			return str
		}
		return ""
	}
}
