package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insta-tracker/config"
	"insta-tracker/models"
)

func namedUser(id, username string, types ...string) models.UserRecord {
	return models.UserRecord{ExternalID: id, Username: username, Types: types}
}

func TestAssembleReportFirstSnapshot(t *testing.T) {
	snap := NormalizeSnapshot(
		[]map[string]any{rawUser("1", "u1")},
		[]map[string]any{rawUser("2", "u2")},
		0,
	)
	delta := ComputeDelta(snap.Users, nil)

	report := AssembleReport("2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), snap, delta, nil)

	assert.Equal(t, "2024-03-01", report.ID)
	assert.Equal(t, 1, report.NumFollowers)
	assert.Equal(t, 1, report.NumFollowing)
	assert.Empty(t, report.NewFollowers)
	assert.Empty(t, report.LostFollowers)
	assert.Equal(t, models.Stats{}, report.Stats)
}

func TestAssembleReportStats(t *testing.T) {
	prev := reportWithUsers("2024-03-01",
		namedUser("1", "u1", models.RelationFollower),
		namedUser("2", "u2", models.RelationFollower, models.RelationFollowing),
	)

	snap := NormalizeSnapshot(
		[]map[string]any{rawUser("1", "u1"), rawUser("3", "u3")},
		[]map[string]any{rawUser("2", "u2")},
		0,
	)
	delta := ComputeDelta(snap.Users, prev)

	report := AssembleReport("2024-03-02", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), snap, delta, prev)

	// Lost u2 as follower, gained u3
	assert.Equal(t, []string{"3"}, report.NewFollowers)
	assert.Equal(t, []string{"2"}, report.LostFollowers)
	assert.Equal(t, 1, report.Stats.NewFollowersCount)
	assert.Equal(t, 1, report.Stats.LostFollowersCount)
	assert.Equal(t, 0, report.Stats.NetFollowerChange)
	assert.Equal(t, "2024-03-01", report.Stats.PreviousReportDate)
}

func TestAssembleReportCountsMatchUsers(t *testing.T) {
	snap := NormalizeSnapshot(
		[]map[string]any{rawUser("1", "u1"), rawUser("2", "u2")},
		[]map[string]any{rawUser("2", "u2"), rawUser("3", "u3")},
		0,
	)
	report := AssembleReport("2024-03-01", time.Now(), snap, ComputeDelta(snap.Users, nil), nil)

	followers := 0
	following := 0
	for _, u := range report.Users {
		if u.HasType(models.RelationFollower) {
			followers++
		}
		if u.HasType(models.RelationFollowing) {
			following++
		}
	}
	assert.Equal(t, report.NumFollowers, followers)
	assert.Equal(t, report.NumFollowing, following)
}

func TestFilterNotFollowingBack(t *testing.T) {
	report := reportWithUsers("2024-03-01",
		namedUser("1", "a", models.RelationFollowing),
		namedUser("2", "b", models.RelationFollower, models.RelationFollowing),
		namedUser("3", "c", models.RelationFollowing),
	)

	entries := FilterNotFollowingBack(report, map[string]struct{}{"c": {}})

	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Username)
	assert.Equal(t, "https://www.instagram.com/a/", entries[0].InstagramURL)
}

func TestFilterNotFollowingBackCaseInsensitiveExceptions(t *testing.T) {
	report := reportWithUsers("2024-03-01",
		namedUser("1", "Charlie", models.RelationFollowing),
	)

	entries := FilterNotFollowingBack(report, map[string]struct{}{"charlie": {}})
	assert.Empty(t, entries)
}

func TestFilterNotFollowingBackSkipsFollowers(t *testing.T) {
	report := reportWithUsers("2024-03-01",
		namedUser("1", "fan", models.RelationFollower),
	)

	entries := FilterNotFollowingBack(report, nil)
	assert.Empty(t, entries)
}

func TestReportDay(t *testing.T) {
	restore := appConfig
	defer func() { appConfig = restore }()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	appConfig = &config.Config{ReportLocation: loc}

	// 20:00 UTC on March 1 is already March 2 in IST
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	id, generatedAt := reportDay(now)

	assert.Equal(t, "2024-03-02", id)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, loc), generatedAt)
}

func TestReportDayDefaultsToUTC(t *testing.T) {
	restore := appConfig
	defer func() { appConfig = restore }()
	appConfig = nil

	now := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	id, _ := reportDay(now)
	assert.Equal(t, "2024-03-01", id)
}
