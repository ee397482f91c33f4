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

// UpsertAccounts refreshes the directory of every account ever seen in a
// snapshot with the latest profile data, in one unordered bulk write.
// Records without an upstream id are skipped; usernames are too unstable to
// key a long-lived directory.
func UpsertAccounts(ctx context.Context, users []models.UserRecord) error {
	if len(users) == 0 {
		return nil
	}
	defer observeQuery("upsert_accounts", time.Now())

	now := time.Now().UTC()
	ops := make([]mongo.WriteModel, 0, len(users))

	for _, u := range users {
		if u.ExternalID == "" {
			continue
		}

		filter := bson.M{"_id": u.ExternalID}
		update := bson.M{
			"$set": bson.M{
				"username":        u.Username,
				"full_name":       u.FullName,
				"profile_pic_url": u.ProfilePicURL,
				"last_seen":       now,
			},
			"$setOnInsert": bson.M{
				"first_seen": now,
			},
		}

		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}

	if len(ops) == 0 {
		return nil
	}

	collection := GetDatabase().Collection(accountsCollection)
	_, err := collection.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
	return err
}

// GetAccountByUsername returns the last-known profile for a username, or
// nil when the account has never appeared in a snapshot.
func GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	defer observeQuery("find_account", time.Now())
	collection := GetDatabase().Collection(accountsCollection)

	var account models.Account
	err := collection.FindOne(ctx, bson.M{"username": username}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}
