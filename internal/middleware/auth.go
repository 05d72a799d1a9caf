package middleware

import (
	"strings"

	"license-key-service/internal/util"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUsername = "username"
	LocalRole     = "role"
)

// Auth requires a valid bearer token signed with secret.
func Auth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authentication token",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header",
			})
		}

		claims, err := util.ValidateToken(secret, tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authentication token",
			})
		}

		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		if role != util.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin privileges required",
			})
		}
		return c.Next()
	}
}

// Actor returns the authenticated username, or "anonymous".
func Actor(c *fiber.Ctx) string {
	if name, ok := c.Locals(LocalUsername).(string); ok && name != "" {
		return name
	}
	return "anonymous"
}
