package middleware

import (
	"github.com/gofiber/fiber/v2"
	"visiondesk/models"
)

// RequireRoles gates a route group to the given roles. It must run
// after Protected, which stores the user in locals. Per-instance rules
// (ownership, assignment, company membership) stay in the policy
// package; this middleware only enforces the static role table.
func RequireRoles(allowedRoles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}
		if _, ok := allowed[user.Role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Operation not permitted for your role",
			})
		}
		return c.Next()
	}
}
