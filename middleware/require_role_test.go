package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visiondesk/models"
)

func appWithRole(role string, allowed ...string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &models.User{Role: role})
		return c.Next()
	})
	app.Get("/guarded", RequireRoles(allowed...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"admin passes staff gate", models.RoleAdmin, []string{models.RoleAdmin, models.RoleManager}, fiber.StatusOK},
		{"manager passes staff gate", models.RoleManager, []string{models.RoleAdmin, models.RoleManager}, fiber.StatusOK},
		{"developer blocked by staff gate", models.RoleDeveloper, []string{models.RoleAdmin, models.RoleManager}, fiber.StatusForbidden},
		{"client blocked by admin gate", models.RoleClient, []string{models.RoleAdmin}, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := appWithRole(tt.role, tt.allowed...)
			resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
