package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is a dashboard login session, carried by cookie
type Session struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	Username     string             `bson:"username" json:"username"`
	IPAddress    string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent    string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
}
