package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insta-tracker/models"
)

func user(id string, types ...string) models.UserRecord {
	return models.UserRecord{ExternalID: id, Username: "user_" + id, Types: types}
}

func TestClassifyUsersPartitions(t *testing.T) {
	users := []models.UserRecord{
		user("1", models.RelationFollower),
		user("2", models.RelationFollower, models.RelationFollowing),
		user("3", models.RelationFollowing),
		user("4", models.RelationFollower),
	}

	p := ClassifyUsers(users)

	require.Len(t, p.FollowersOnly, 2)
	require.Len(t, p.FollowingOnly, 1)
	require.Len(t, p.Mutual, 1)
	assert.Equal(t, "2", p.Mutual[0].ExternalID)

	assert.Len(t, p.AllFollowers(), 3)
	assert.Len(t, p.AllFollowing(), 2)
}

func TestClassifyUsersInclusionExclusion(t *testing.T) {
	cases := [][]models.UserRecord{
		{},
		{user("1", models.RelationFollower)},
		{user("1", models.RelationFollowing)},
		{
			user("1", models.RelationFollower),
			user("2", models.RelationFollower, models.RelationFollowing),
			user("3", models.RelationFollowing),
		},
		{
			user("1", models.RelationFollower, models.RelationFollowing),
			user("2", models.RelationFollower, models.RelationFollowing),
		},
	}

	for _, users := range cases {
		p := ClassifyUsers(users)

		// |followersOnly| + |followingOnly| + |mutual| == |users|
		assert.Equal(t, len(users), len(p.FollowersOnly)+len(p.FollowingOnly)+len(p.Mutual))

		// |allFollowers| + |allFollowing| - |mutual| == |users|
		assert.Equal(t, len(users), len(p.AllFollowers())+len(p.AllFollowing())-len(p.Mutual))
	}
}

func TestClassifyNormalizedSnapshot(t *testing.T) {
	followers := []map[string]any{rawUser("1", "u1"), rawUser("2", "u2")}
	following := []map[string]any{rawUser("2", "u2"), rawUser("3", "u3")}

	snap := NormalizeSnapshot(followers, following, 0)
	p := ClassifyUsers(snap.Users)

	require.Len(t, p.Mutual, 1)
	assert.Equal(t, "2", p.Mutual[0].ExternalID)
	require.Len(t, p.FollowersOnly, 1)
	assert.Equal(t, "1", p.FollowersOnly[0].ExternalID)
	require.Len(t, p.FollowingOnly, 1)
	assert.Equal(t, "3", p.FollowingOnly[0].ExternalID)
}
