package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insta-tracker/models"
)

func reportWithUsers(id string, users ...models.UserRecord) *models.Report {
	return &models.Report{ID: id, Users: users}
}

func TestComputeDeltaFirstSnapshot(t *testing.T) {
	current := []models.UserRecord{
		user("1", models.RelationFollower),
		user("2", models.RelationFollowing),
	}

	d := ComputeDelta(current, nil)

	assert.Empty(t, d.NewFollowers)
	assert.Empty(t, d.LostFollowers)
	assert.Empty(t, d.NewFollowing)
	assert.Empty(t, d.Unfollowed)

	// Empty arrays, not nil, so the stored report serializes as []
	assert.NotNil(t, d.NewFollowers)
	assert.NotNil(t, d.LostFollowers)
	assert.NotNil(t, d.NewFollowing)
	assert.NotNil(t, d.Unfollowed)
}

func TestComputeDeltaRenameStability(t *testing.T) {
	prev := reportWithUsers("2024-01-01", models.UserRecord{
		ExternalID: "123",
		Username:   "alice",
		Types:      []string{models.RelationFollower},
	})
	current := []models.UserRecord{{
		ExternalID: "123",
		Username:   "alice2",
		Types:      []string{models.RelationFollower},
	}}

	d := ComputeDelta(current, prev)

	// A renamed account with a stable id is not churn
	assert.Empty(t, d.NewFollowers)
	assert.Empty(t, d.LostFollowers)
}

func TestComputeDeltaUsernameFallback(t *testing.T) {
	// Previous report predates id tracking entirely
	prev := reportWithUsers("2024-01-01", models.UserRecord{
		Username: "bob",
		Types:    []string{models.RelationFollower},
	})
	current := []models.UserRecord{{
		ExternalID: "9",
		Username:   "bob",
		Types:      []string{models.RelationFollower},
	}}

	d := ComputeDelta(current, prev)

	assert.Empty(t, d.NewFollowers)
	assert.Empty(t, d.LostFollowers)
}

func TestComputeDeltaUsernameFallbackSkipsIDOnlyRecords(t *testing.T) {
	// Previous report predates id tracking; a current record carrying only
	// an id has no username to join on and must not count as churn.
	prev := reportWithUsers("2024-01-01", models.UserRecord{
		Username: "bob",
		Types:    []string{models.RelationFollower},
	})
	current := []models.UserRecord{
		{ExternalID: "7", Types: []string{models.RelationFollower}},
		{ExternalID: "9", Username: "bob", Types: []string{models.RelationFollower}},
	}

	d := ComputeDelta(current, prev)

	assert.Empty(t, d.NewFollowers)
	assert.Empty(t, d.LostFollowers)
}

func TestComputeDeltaTwoDayScenario(t *testing.T) {
	// Day 1: followers {u1,u2}, following {u2,u3}
	day1 := NormalizeSnapshot(
		[]map[string]any{rawUser("u1", "u1"), rawUser("u2", "u2")},
		[]map[string]any{rawUser("u2", "u2"), rawUser("u3", "u3")},
		0,
	)
	prev := reportWithUsers("2024-01-01", day1.Users...)

	// Day 2: followers {u1,u4}, following {u2,u3}
	day2 := NormalizeSnapshot(
		[]map[string]any{rawUser("u1", "u1"), rawUser("u4", "u4")},
		[]map[string]any{rawUser("u2", "u2"), rawUser("u3", "u3")},
		0,
	)

	d := ComputeDelta(day2.Users, prev)

	assert.Equal(t, []string{"u4"}, d.NewFollowers)
	assert.Equal(t, []string{"u2"}, d.LostFollowers)
	assert.Empty(t, d.NewFollowing)
	assert.Empty(t, d.Unfollowed)

	report := AssembleReport("2024-01-02", prev.GeneratedAt.AddDate(0, 0, 1), day2, d, prev)
	assert.Equal(t, 0, report.Stats.NetFollowerChange)
	assert.Equal(t, 0, report.Stats.NetFollowingChange)
}

func TestComputeDeltaNegativeNetChange(t *testing.T) {
	prev := reportWithUsers("2024-01-01",
		user("1", models.RelationFollower),
		user("2", models.RelationFollower),
		user("3", models.RelationFollower),
	)
	current := []models.UserRecord{user("1", models.RelationFollower)}

	d := ComputeDelta(current, prev)
	require.Len(t, d.LostFollowers, 2)

	snap := &Snapshot{Users: current, NumFollowers: 1}
	report := AssembleReport("2024-01-02", prev.GeneratedAt.AddDate(0, 0, 1), snap, d, prev)
	assert.Equal(t, -2, report.Stats.NetFollowerChange)
}

func TestComputeDeltaSortedOutput(t *testing.T) {
	prev := reportWithUsers("2024-01-01")
	current := []models.UserRecord{
		user("c", models.RelationFollower),
		user("a", models.RelationFollower),
		user("b", models.RelationFollower),
	}

	d := ComputeDelta(current, prev)

	assert.Equal(t, []string{"a", "b", "c"}, d.NewFollowers)
}
