package middleware

import (
	"log"
	"strings"

	"gan-backend/services"

	"github.com/gofiber/fiber/v2"
)

// UserAuth validates the Bearer session token and attaches the user id to the
// request context.
func UserAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		userID, err := auth.ParseToken(token)
		if err != nil {
			log.Printf("[Auth] rejected session token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired session",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// OptionalUserAuth attaches the user id when a valid Bearer token is present
// but never rejects the request. Public routes that reveal extra fields to
// authenticated callers (tournament room details) use this.
func OptionalUserAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if userID, err := auth.ParseToken(token); err == nil {
				c.Locals("user_id", userID)
			}
		}
		return c.Next()
	}
}

// AdminAuth validates an admin session token issued by AdminService. Admin
// tokens are signed with a separate secret so a user token can never pass.
func AdminAuth(admin *services.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "admin authentication required",
			})
		}

		adminID, role, err := admin.ParseToken(token)
		if err != nil {
			log.Printf("[Auth] rejected admin token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired admin session",
			})
		}

		c.Locals("admin_id", adminID)
		c.Locals("admin_role", role)
		return c.Next()
	}
}

// SuperAdminOnly restricts a route to superadmin role. Must run after AdminAuth.
func SuperAdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("admin_role").(string)
		if role != "superadmin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "superadmin access required",
			})
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}
