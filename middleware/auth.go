package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"insta-tracker/services"
)

func RequireAuth(c *fiber.Ctx) error {
	// Get session ID from cookie
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	// Get session from database
	session, err := services.GetSessionByID(c.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get session", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if session == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired session",
		})
	}

	// Set user information in locals for downstream handlers
	c.Locals("username", session.Username)
	c.Locals("session_id", session.SessionID)

	// Extend session expiration on activity
	services.ExtendSession(c.Context(), sessionID)

	return c.Next()
}
