package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insta-tracker/models"
)

// ProfileCacheTTL bounds how long a cached profile is served before the
// TTL index reaps it.
const ProfileCacheTTL = 10 * 24 * time.Hour

// GetCachedProfile returns the cached profile for a username, or nil when
// absent or already expired.
func GetCachedProfile(ctx context.Context, username string) (*models.CachedProfile, error) {
	defer observeQuery("find_cached_profile", time.Now())
	collection := GetDatabase().Collection(profileCacheCollection)

	var profile models.CachedProfile
	err := collection.FindOne(ctx, bson.M{"username": username}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	// The TTL monitor only runs periodically, so expiry is also checked here
	if profile.ExpireAt.Before(time.Now()) {
		return nil, nil
	}

	return &profile, nil
}

// CacheProfile upserts a profile into the cache with a fresh TTL window
func CacheProfile(ctx context.Context, profile *models.CachedProfile) error {
	defer observeQuery("cache_profile", time.Now())
	collection := GetDatabase().Collection(profileCacheCollection)

	now := time.Now().UTC()
	profile.CachedAt = now
	profile.ExpireAt = now.Add(ProfileCacheTTL)

	filter := bson.M{"username": profile.Username}
	update := bson.M{"$set": profile}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}
