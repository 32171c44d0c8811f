package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsKey = "caller_identity"

// Middleware returns a fiber handler that resolves the Authorization bearer
// credential and stores the identity in the request locals. Requests without
// a resolvable identity are rejected with 401 before any handler logic runs.
func Middleware(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "missing or malformed authorization header",
			})
		}

		ident, err := resolver.Resolve(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "invalid credential",
			})
		}

		c.Locals(localsKey, ident)
		return c.Next()
	}
}

// FromContext returns the identity stored by Middleware, if any.
func FromContext(c *fiber.Ctx) (*Identity, bool) {
	ident, ok := c.Locals(localsKey).(*Identity)
	return ident, ok
}

// CallerKey is a ratelimit key function: the authenticated user id when
// present, the client IP otherwise.
func CallerKey(c *fiber.Ctx) string {
	if ident, ok := FromContext(c); ok && ident.UserID != "" {
		return "user:" + ident.UserID
	}
	return "ip:" + c.IP()
}
