package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"insta-tracker/models"
)

const (
	SessionDuration   = 24 * time.Hour
	SessionCookieName = "session"
)

// GenerateSessionID generates a secure random session ID
func GenerateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateSession creates a new session in the database
func CreateSession(ctx context.Context, username, ipAddress, userAgent string) (*models.Session, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		ID:           primitive.NewObjectID(),
		SessionID:    sessionID,
		Username:     username,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(SessionDuration),
		IsActive:     true,
	}

	collection := GetDatabase().Collection(sessionsCollection)
	_, err = collection.InsertOne(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSessionByID retrieves an active, unexpired session by session ID
func GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	collection := GetDatabase().Collection(sessionsCollection)

	var session models.Session
	err := collection.FindOne(ctx, bson.M{
		"session_id": sessionID,
		"is_active":  true,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&session)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// ExtendSession pushes a session's expiry forward on activity
func ExtendSession(ctx context.Context, sessionID string) error {
	collection := GetDatabase().Collection(sessionsCollection)

	now := time.Now()
	_, err := collection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"last_accessed": now,
			"expires_at":    now.Add(SessionDuration),
		}},
	)
	return err
}

// DestroySession deactivates a session
func DestroySession(ctx context.Context, sessionID string) error {
	collection := GetDatabase().Collection(sessionsCollection)

	_, err := collection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	return err
}

// CleanupExpiredSessions removes sessions past their expiry
func CleanupExpiredSessions(ctx context.Context) error {
	collection := GetDatabase().Collection(sessionsCollection)

	result, err := collection.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now()},
	})
	if err != nil {
		return err
	}

	if result.DeletedCount > 0 {
		slog.Info("Cleaned up expired sessions", "count", result.DeletedCount)
	}
	return nil
}

// StartSessionCleanup runs the expired-session sweep hourly until the
// context is cancelled.
func StartSessionCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := CleanupExpiredSessions(cleanupCtx); err != nil {
					slog.Error("Session cleanup failed", "error", err)
				}
				cancel()
			}
		}
	}()
}
