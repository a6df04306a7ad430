package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/auth"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
)

const userKey = "user"

// NewAuthMiddleware verifies the Bearer token minted by the identity
// provider and stores the caller on the request.
func NewAuthMiddleware(verifier *identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid header format"})
		}

		user, err := verifier.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid token"})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireAction gates a route group on the caller's role.
func RequireAction(action auth.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromCtx(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed user"})
		}

		if err := auth.Authorize(user, action); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		return c.Next()
	}
}

func UserFromCtx(c *fiber.Ctx) *identity.User {
	user, ok := c.Locals(userKey).(*identity.User)
	if !ok {
		return nil
	}

	return user
}
