package services

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// CheckAdminCredentials verifies a dashboard login against the configured
// admin account. With no password hash configured, every login fails.
func CheckAdminCredentials(username, password string) bool {
	if appConfig == nil || appConfig.AdminPasswordHash == "" {
		return false
	}
	if username != appConfig.AdminUsername {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(appConfig.AdminPasswordHash), []byte(password))
	if err != nil {
		slog.Info("Invalid password attempt", "username", username)
		return false
	}
	return true
}

// HashPassword generates a bcrypt hash, used to provision ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
