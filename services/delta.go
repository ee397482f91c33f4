package services

import (
	"sort"

	"insta-tracker/models"
)

// Delta holds the four set differences between two consecutive snapshots.
// All slices are non-nil and sorted so repeated runs serialize identically.
type Delta struct {
	NewFollowers  []string
	LostFollowers []string
	NewFollowing  []string
	Unfollowed    []string
}

// ComputeDelta diffs the current snapshot's users against the previous
// report. prev may be nil (first-ever snapshot), yielding empty sets.
//
// The join key is the upstream id when available so that a renamed account
// with a stable id never shows up as a lost+new pair. When the previous
// report predates id tracking entirely, both sides fall back to usernames.
func ComputeDelta(current []models.UserRecord, prev *models.Report) Delta {
	d := Delta{
		NewFollowers:  []string{},
		LostFollowers: []string{},
		NewFollowing:  []string{},
		Unfollowed:    []string{},
	}

	if prev == nil {
		return d
	}

	byUsername := predatesIDTracking(prev.Users)

	curFollowers, curFollowing := relationSets(current, byUsername)
	prevFollowers, prevFollowing := relationSets(prev.Users, byUsername)

	d.NewFollowers = subtract(curFollowers, prevFollowers)
	d.LostFollowers = subtract(prevFollowers, curFollowers)
	d.NewFollowing = subtract(curFollowing, prevFollowing)
	d.Unfollowed = subtract(prevFollowing, curFollowing)

	return d
}

// predatesIDTracking reports whether a stored report carries no upstream ids
// at all, in which case username is the only usable join key.
func predatesIDTracking(users []models.UserRecord) bool {
	if len(users) == 0 {
		return false
	}
	for _, u := range users {
		if u.ExternalID != "" {
			return false
		}
	}
	return true
}

func relationSets(users []models.UserRecord, byUsername bool) (followers, following map[string]struct{}) {
	followers = make(map[string]struct{})
	following = make(map[string]struct{})

	for _, u := range users {
		key := u.Key()
		if byUsername {
			// Records without the active key cannot join either side and
			// would otherwise register as spurious churn.
			if u.Username == "" {
				continue
			}
			key = u.Username
		}
		if key == "" {
			continue
		}
		if u.HasType(models.RelationFollower) {
			followers[key] = struct{}{}
		}
		if u.HasType(models.RelationFollowing) {
			following[key] = struct{}{}
		}
	}

	return followers, following
}

// subtract returns the sorted members of a not present in b
func subtract(a, b map[string]struct{}) []string {
	diff := []string{}
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	sort.Strings(diff)
	return diff
}
