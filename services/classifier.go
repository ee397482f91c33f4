package services

import (
	"insta-tracker/models"
)

// Partition splits a snapshot's users into three disjoint relationship views.
// Every user lands in exactly one bucket, so
// |FollowersOnly| + |FollowingOnly| + |Mutual| == |users|.
type Partition struct {
	FollowersOnly []models.UserRecord
	FollowingOnly []models.UserRecord
	Mutual        []models.UserRecord
}

// ClassifyUsers partitions normalized users by their relation tags
func ClassifyUsers(users []models.UserRecord) Partition {
	p := Partition{
		FollowersOnly: []models.UserRecord{},
		FollowingOnly: []models.UserRecord{},
		Mutual:        []models.UserRecord{},
	}

	for _, u := range users {
		switch {
		case u.IsMutual():
			p.Mutual = append(p.Mutual, u)
		case u.HasType(models.RelationFollower):
			p.FollowersOnly = append(p.FollowersOnly, u)
		case u.HasType(models.RelationFollowing):
			p.FollowingOnly = append(p.FollowingOnly, u)
		}
	}

	return p
}

// AllFollowers returns followers-only plus mutual users
func (p Partition) AllFollowers() []models.UserRecord {
	all := make([]models.UserRecord, 0, len(p.FollowersOnly)+len(p.Mutual))
	all = append(all, p.FollowersOnly...)
	all = append(all, p.Mutual...)
	return all
}

// AllFollowing returns following-only plus mutual users
func (p Partition) AllFollowing() []models.UserRecord {
	all := make([]models.UserRecord, 0, len(p.FollowingOnly)+len(p.Mutual))
	all = append(all, p.FollowingOnly...)
	all = append(all, p.Mutual...)
	return all
}
