package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"insta-tracker/models"
	"insta-tracker/services"
)

// GetFollowers returns the latest report's followers with an optional limit
func GetFollowers(c *fiber.Ctx) error {
	return latestReportUsers(c, models.RelationFollower)
}

// GetFollowing returns the latest report's following with an optional limit
func GetFollowing(c *fiber.Ctx) error {
	return latestReportUsers(c, models.RelationFollowing)
}

func latestReportUsers(c *fiber.Ctx, relation string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := services.GetLatestReport(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNoReports) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "No reports found",
			})
		}
		slog.Error("Failed to get latest report", "error", err, "relation", relation)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve users",
		})
	}

	users := report.UsersByType(relation)

	// Order only matters for display truncation
	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"count":   len(users),
	})
}

// GetUserProfile serves a profile from the TTL cache, falling back to the
// latest report's record for the username and caching that.
func GetUserProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "username is required",
		})
	}

	cached, err := services.GetCachedProfile(ctx, username)
	if err != nil {
		slog.Error("Failed to read profile cache", "error", err, "username", username)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve profile",
		})
	}
	if cached != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    cached,
		})
	}

	report, err := services.GetLatestReport(ctx)
	if err != nil && !errors.Is(err, services.ErrNoReports) {
		slog.Error("Failed to get latest report", "error", err, "username", username)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve profile",
		})
	}

	var record *models.UserRecord
	if report != nil {
		record = report.UserByUsername(username)
	}
	if record == nil {
		// Fall back to the long-lived accounts directory
		account, err := services.GetAccountByUsername(ctx, username)
		if err != nil {
			slog.Error("Failed to look up account", "error", err, "username", username)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to retrieve profile",
			})
		}
		if account == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "User not found",
			})
		}
		record = &models.UserRecord{
			ExternalID:    account.ExternalID,
			Username:      account.Username,
			FullName:      account.FullName,
			ProfilePicURL: account.ProfilePicURL,
		}
	}

	profile := &models.CachedProfile{
		UserID:        record.ExternalID,
		Username:      record.Username,
		FullName:      record.FullName,
		ProfilePicURL: record.ProfilePicURL,
	}
	if err := services.CacheProfile(ctx, profile); err != nil {
		slog.Error("Failed to cache profile", "error", err, "username", username)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}
