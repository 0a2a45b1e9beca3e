package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tmarcial/passage/core"
)

// requireAuth validates the bearer token and stores the resolved user and
// the presented token in the context for downstream handlers.
func (a *Adapter) requireAuth(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": core.ErrMissingAuthHeader.Error(),
		})
	}

	user, err := a.handler.Authenticate(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Locals("user", user)
	c.Locals("sessionToken", token)

	return c.Next()
}

// extractToken extracts the bearer token from the Authorization header.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
