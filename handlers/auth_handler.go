package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"insta-tracker/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	if !services.CheckAdminCredentials(req.Username, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	session, err := services.CreateSession(c.Context(), req.Username, c.IP(), c.Get("User-Agent"))
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     services.SessionCookieName,
		Value:    session.SessionID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	slog.Info("Admin logged in", "username", req.Username)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  "Login successful",
		"username": req.Username,
	})
}

func Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID != "" {
		if err := services.DestroySession(c.Context(), sessionID); err != nil {
			slog.Error("Failed to destroy session", "error", err)
		}
	}

	// Clear session cookie
	c.Cookie(&fiber.Cookie{
		Name:     services.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

func CheckSession(c *fiber.Ctx) error {
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"authenticated": false,
		})
	}

	session, err := services.GetSessionByID(c.Context(), sessionID)
	if err != nil || session == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"authenticated": false,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authenticated": true,
		"username":      session.Username,
	})
}
