package models

import (
	"time"
)

// Relation tags a user can carry within a single snapshot. Mutual is
// derived from both tags being present and is never stored as a tag.
const (
	RelationFollower  = "follower"
	RelationFollowing = "following"
)

// UserRecord represents a normalized account entry within a report
type UserRecord struct {
	ExternalID    string   `bson:"id" json:"id"`
	Username      string   `bson:"username" json:"username"`
	FullName      string   `bson:"full_name" json:"full_name"`
	ProfilePicURL string   `bson:"profile_pic_url" json:"profile_pic_url"`
	Types         []string `bson:"type" json:"type"`
}

// Key returns the identity key: the upstream id when known, the username otherwise.
func (u UserRecord) Key() string {
	if u.ExternalID != "" {
		return u.ExternalID
	}
	return u.Username
}

// HasType reports whether the record carries the given relation tag
func (u UserRecord) HasType(relation string) bool {
	for _, t := range u.Types {
		if t == relation {
			return true
		}
	}
	return false
}

// IsMutual reports whether the account both follows and is followed
func (u UserRecord) IsMutual() bool {
	return u.HasType(RelationFollower) && u.HasType(RelationFollowing)
}

// Stats summarizes the delta between a report and its predecessor
type Stats struct {
	NewFollowersCount  int    `bson:"new_followers_count" json:"new_followers_count"`
	LostFollowersCount int    `bson:"lost_followers_count" json:"lost_followers_count"`
	NewFollowingCount  int    `bson:"new_following_count" json:"new_following_count"`
	UnfollowedCount    int    `bson:"unfollowed_count" json:"unfollowed_count"`
	NetFollowerChange  int    `bson:"net_follower_change" json:"net_follower_change"`
	NetFollowingChange int    `bson:"net_following_change" json:"net_following_change"`
	PreviousReportDate string `bson:"previous_report_date,omitempty" json:"previous_report_date,omitempty"`
}

// Report is one day's persisted snapshot together with its delta against
// the chronologically preceding report. The document id is the calendar
// date (YYYY-MM-DD) in the configured report timezone.
type Report struct {
	ID            string       `bson:"_id" json:"_id"`
	GeneratedAt   time.Time    `bson:"generated_at" json:"generated_at"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
	NumFollowers  int          `bson:"num_followers" json:"num_followers"`
	NumFollowing  int          `bson:"num_following" json:"num_following"`
	Users         []UserRecord `bson:"users" json:"users"`
	NewFollowers  []string     `bson:"new_followers" json:"new_followers"`
	LostFollowers []string     `bson:"lost_followers" json:"lost_followers"`
	NewFollowing  []string     `bson:"new_following" json:"new_following"`
	Unfollowed    []string     `bson:"unfollowed" json:"unfollowed"`
	Stats         Stats        `bson:"stats" json:"stats"`
}

// UsersByType returns all users carrying the given relation tag
func (r *Report) UsersByType(relation string) []UserRecord {
	users := []UserRecord{}
	for _, u := range r.Users {
		if u.HasType(relation) {
			users = append(users, u)
		}
	}
	return users
}

// MutualUsers returns users who both follow and are followed
func (r *Report) MutualUsers() []UserRecord {
	users := []UserRecord{}
	for _, u := range r.Users {
		if u.IsMutual() {
			users = append(users, u)
		}
	}
	return users
}

// UserByUsername returns the report entry for a username, or nil
func (r *Report) UserByUsername(username string) *UserRecord {
	for i := range r.Users {
		if r.Users[i].Username == username {
			return &r.Users[i]
		}
	}
	return nil
}

// NotFollowingBackEntry is the derived view of an account the tracked
// user follows that does not follow back. Computed on read, never stored.
type NotFollowingBackEntry struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	InstagramURL  string `json:"instagram_url"`
}

// Account is the last-known profile of any identity ever seen in a snapshot
type Account struct {
	ExternalID    string    `bson:"_id" json:"id"`
	Username      string    `bson:"username" json:"username"`
	FullName      string    `bson:"full_name" json:"full_name"`
	ProfilePicURL string    `bson:"profile_pic_url" json:"profile_pic_url"`
	FirstSeen     time.Time `bson:"first_seen" json:"first_seen"`
	LastSeen      time.Time `bson:"last_seen" json:"last_seen"`
}

// CachedProfile is a TTL-cached profile keyed by username
type CachedProfile struct {
	UserID        string    `bson:"user_id" json:"id"`
	Username      string    `bson:"username" json:"username"`
	FullName      string    `bson:"full_name" json:"full_name"`
	ProfilePicURL string    `bson:"profile_pic_url" json:"profile_pic_url"`
	CachedAt      time.Time `bson:"cached_at" json:"cached_at"`
	ExpireAt      time.Time `bson:"expire_at" json:"-"`
}
