package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"insta-tracker/services"
)

// GenerateReportRequest carries the raw follower and following lists from
// the fetch collaborator. Entries are loosely typed; the normalizer owns
// all shape tolerance.
type GenerateReportRequest struct {
	Followers []map[string]any `json:"followers"`
	Following []map[string]any `json:"following"`
}

// GenerateReport runs the snapshot pipeline for today
func GenerateReport(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var req GenerateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	opts := services.GenerateOptions{
		Force:  c.QueryBool("force", false),
		DryRun: c.QueryBool("dry_run", false),
	}

	report, created, err := services.GenerateReport(ctx, req.Followers, req.Following, opts)
	if err != nil {
		slog.Error("Failed to generate report", "error", err, "force", opts.Force)
		if errors.Is(err, services.ErrDuplicateReport) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "Report generation conflicted with a concurrent run, retry",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to generate report",
		})
	}

	message := "Report generated successfully"
	switch {
	case opts.DryRun:
		message = "Dry run completed, report not persisted"
	case !created:
		message = "Report already exists for today"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    report,
		"message": message,
	})
}

// GetReports returns the most recent reports, newest first
func GetReports(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	reports, err := services.GetReportHistory(ctx, limit)
	if err != nil {
		slog.Error("Failed to get report history", "error", err, "limit", limit)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve reports",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reports,
		"count":   len(reports),
	})
}

// GetLatestReport returns the most recent report
func GetLatestReport(c *fiber.Ctx) error {
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
		slog.Error("Failed to get latest report", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve report",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// GetReportByDate returns the report for a specific calendar date
func GetReportByDate(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	date := c.Params("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Date must be YYYY-MM-DD",
		})
	}

	report, err := services.GetReportByDate(ctx, date)
	if err != nil {
		if errors.Is(err, services.ErrNoReports) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "No report for date",
			})
		}
		slog.Error("Failed to get report by date", "error", err, "date", date)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve report",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// GetNotFollowingBack returns accounts followed that don't follow back,
// minus configured exceptions and any passed via the exclude query param.
func GetNotFollowingBack(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var extra []string
	if exclude := c.Query("exclude"); exclude != "" {
		extra = strings.Split(exclude, ",")
	}

	entries, err := services.NotFollowingBack(ctx, extra)
	if err != nil {
		if errors.Is(err, services.ErrNoReports) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "No reports found",
			})
		}
		slog.Error("Failed to compute not-following-back view", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to compute view",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}
