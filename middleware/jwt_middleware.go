package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"visiondesk/config"
	"visiondesk/models"
	"visiondesk/utils"
)

// Protected authenticates the request from a bearer token. Both a
// missing and an invalid token get the same generic unauthorized body
// so the two cases are not distinguishable from outside. On success
// the caller's User row is stored in c.Locals("user").
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
				return unauthorized(c)
			}
			token = tokenParts[1]
		} else {
			// Fall back to cookie if header not present
			token = c.Cookies("access_token")
			if token == "" {
				return unauthorized(c)
			}
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			return unauthorized(c)
		}

		var user models.User
		if err := config.DB.First(&user, claims.UserID).Error; err != nil {
			return unauthorized(c)
		}

		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is not active",
			})
		}

		c.Locals("user", &user)
		c.Locals("userID", user.ID)

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authorization required",
	})
}
