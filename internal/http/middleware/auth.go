package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/laghulabs/laghu/internal/http/util"
)

// OwnerIDKey is the Locals key under which the authenticated owner id is
// stored.
const OwnerIDKey = "owner_id"

// Identity extracts the caller identity from a bearer token when one is
// present. A missing header means an anonymous caller; an invalid token is
// rejected outright.
func Identity(signer *util.TokenSigner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "malformed authorization header",
			})
		}

		subject, err := signer.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(OwnerIDKey, subject)
		return c.Next()
	}
}

// RequireOwner rejects requests that carry no authenticated identity.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if OwnerID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		return c.Next()
	}
}

// OwnerID returns the authenticated owner id, or "" for anonymous callers.
func OwnerID(c *fiber.Ctx) string {
	if v, ok := c.Locals(OwnerIDKey).(string); ok {
		return v
	}
	return ""
}
