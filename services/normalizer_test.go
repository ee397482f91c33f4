package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insta-tracker/models"
)

func rawUser(id, username string) map[string]any {
	return map[string]any{"id": id, "username": username}
}

func TestNormalizeSnapshotMergesMutuals(t *testing.T) {
	followers := []map[string]any{
		rawUser("1", "u1"),
		rawUser("2", "u2"),
	}
	following := []map[string]any{
		rawUser("2", "u2"),
		rawUser("3", "u3"),
	}

	snap := NormalizeSnapshot(followers, following, 0)

	require.Len(t, snap.Users, 3)
	assert.Equal(t, 2, snap.NumFollowers)
	assert.Equal(t, 2, snap.NumFollowing)
	assert.Equal(t, 0, snap.Dropped)

	// u2 appears once, carrying both tags
	var u2 *models.UserRecord
	for i := range snap.Users {
		if snap.Users[i].ExternalID == "2" {
			u2 = &snap.Users[i]
		}
	}
	require.NotNil(t, u2)
	assert.True(t, u2.IsMutual())
	assert.ElementsMatch(t, []string{models.RelationFollower, models.RelationFollowing}, u2.Types)
}

func TestNormalizeSnapshotKeyAliases(t *testing.T) {
	followers := []map[string]any{
		{
			"PK":         float64(42),
			"Username":   "alice",
			"FULL_NAME":  "Alice A",
			"Avatar_Url": "https://cdn.example/alice.jpg",
		},
	}

	snap := NormalizeSnapshot(followers, nil, 0)

	require.Len(t, snap.Users, 1)
	u := snap.Users[0]
	assert.Equal(t, "42", u.ExternalID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice A", u.FullName)
	assert.Equal(t, "https://cdn.example/alice.jpg", u.ProfilePicURL)
	assert.Equal(t, []string{models.RelationFollower}, u.Types)
}

func TestNormalizeSnapshotDropsMalformedRecords(t *testing.T) {
	followers := []map[string]any{
		rawUser("1", "u1"),
		{"full_name": "no identity at all"},
		rawUser("2", "u2"),
	}

	snap := NormalizeSnapshot(followers, nil, 0)

	assert.Len(t, snap.Users, 2)
	assert.Equal(t, 1, snap.Dropped)
	assert.Equal(t, 2, snap.NumFollowers)
}

func TestNormalizeSnapshotUsernameOnlyRecords(t *testing.T) {
	followers := []map[string]any{
		{"username": "no_id_here"},
	}
	following := []map[string]any{
		{"username": "no_id_here"},
	}

	snap := NormalizeSnapshot(followers, following, 0)

	require.Len(t, snap.Users, 1)
	assert.Equal(t, "no_id_here", snap.Users[0].Key())
	assert.True(t, snap.Users[0].IsMutual())
}

func TestNormalizeSnapshotDryRunCap(t *testing.T) {
	followers := []map[string]any{
		rawUser("1", "u1"),
		rawUser("2", "u2"),
		rawUser("3", "u3"),
		rawUser("4", "u4"),
		rawUser("5", "u5"),
	}

	snap := NormalizeSnapshot(followers, nil, 2)

	assert.Len(t, snap.Users, 2)
	assert.Equal(t, 2, snap.NumFollowers)
}

func TestStringifyNumericIDs(t *testing.T) {
	// JSON decoding hands numeric ids over as float64
	assert.Equal(t, "1234567891", stringify(float64(1234567891)))
	assert.Equal(t, "7", stringify(7))
	assert.Equal(t, "9000000000", stringify(int64(9000000000)))
	assert.Equal(t, "trimmed", stringify("  trimmed  "))
	assert.Equal(t, "", stringify(nil))
}
