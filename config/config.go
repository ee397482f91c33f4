package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// MongoDB configuration
	MongoURI     string
	DatabaseName string

	// Report configuration
	ReportTimezone string
	ReportLocation *time.Location
	DryRunLimit    int

	// Usernames to suppress in the not-following-back view
	NotFollowingBackExceptions []string

	// Dashboard admin credentials
	AdminUsername     string
	AdminPasswordHash string

	// Server configuration
	Port string
}

func LoadConfig() *Config {
	cfg := &Config{
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:      getEnv("MONGO_DB_NAME", "insta_tracker"),
		ReportTimezone:    getEnv("REPORT_TZ", "UTC"),
		DryRunLimit:       getEnvInt("DRY_RUN_LIMIT", 10),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		Port:              getEnv("PORT", "8080"),
	}

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		slog.Error("Invalid REPORT_TZ, falling back to UTC", "timezone", cfg.ReportTimezone, "error", err)
		loc = time.UTC
	}
	cfg.ReportLocation = loc

	for _, name := range strings.Split(getEnv("EXCEPTION_NOT_FOLLOWING_BACK", ""), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			cfg.NotFollowingBackExceptions = append(cfg.NotFollowingBackExceptions, name)
		}
	}

	// Validate required configuration
	if cfg.MongoURI == "" {
		slog.Error("MONGO_URI not set")
	}
	if cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH not set, all dashboard logins will be rejected")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Error("Invalid integer in environment", "key", key, "value", value)
	}
	return defaultValue
}
