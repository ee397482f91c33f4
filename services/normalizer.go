package services

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"insta-tracker/models"
)

// Snapshot is the normalized, de-duplicated view of one day's raw input.
// Users keeps insertion order: followers first, then following-only.
type Snapshot struct {
	Users        []models.UserRecord
	NumFollowers int
	NumFollowing int
	Dropped      int
}

// Field aliases tolerated in raw upstream records, matched case-insensitively.
var (
	idAliases       = []string{"id", "_id", "pk", "user_id"}
	usernameAliases = []string{"username", "handle"}
	fullNameAliases = []string{"full_name", "fullname", "name", "display_name"}
	avatarAliases   = []string{"profile_pic_url", "profile_pic", "avatar_url", "avatar"}
)

// NormalizeSnapshot merges the raw follower and following collections into a
// single keyed set of user records. An identity present in both collections
// becomes one record carrying both relation tags, which is what mutual
// detection is built on. Records without an identity key are dropped and
// logged. A positive limit caps each input list before normalization (dry run).
func NormalizeSnapshot(rawFollowers, rawFollowing []map[string]any, limit int) *Snapshot {
	if limit > 0 {
		if len(rawFollowers) > limit {
			rawFollowers = rawFollowers[:limit]
		}
		if len(rawFollowing) > limit {
			rawFollowing = rawFollowing[:limit]
		}
	}

	snap := &Snapshot{Users: []models.UserRecord{}}
	index := make(map[string]int)

	ingest := func(raw []map[string]any, relation string) {
		for _, entry := range raw {
			rec, err := normalizeRecord(entry)
			if err != nil {
				slog.Warn("Dropping malformed record", "relation", relation, "error", err)
				malformedRecords.Inc()
				snap.Dropped++
				continue
			}

			i, seen := index[rec.Key()]
			if !seen {
				i = len(snap.Users)
				index[rec.Key()] = i
				snap.Users = append(snap.Users, rec)
			}
			if !snap.Users[i].HasType(relation) {
				snap.Users[i].Types = append(snap.Users[i].Types, relation)
			}
		}
	}

	ingest(rawFollowers, models.RelationFollower)
	ingest(rawFollowing, models.RelationFollowing)

	for _, u := range snap.Users {
		if u.HasType(models.RelationFollower) {
			snap.NumFollowers++
		}
		if u.HasType(models.RelationFollowing) {
			snap.NumFollowing++
		}
	}

	usersProcessed.Add(float64(len(snap.Users)))

	return snap
}

// normalizeRecord canonicalizes one loosely-typed upstream record. Untyped
// maps never escape this function.
func normalizeRecord(raw map[string]any) (models.UserRecord, error) {
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s := stringify(v); s != "" {
			fields[strings.ToLower(k)] = s
		}
	}

	rec := models.UserRecord{
		ExternalID:    firstNonEmpty(fields, idAliases),
		Username:      firstNonEmpty(fields, usernameAliases),
		FullName:      firstNonEmpty(fields, fullNameAliases),
		ProfilePicURL: firstNonEmpty(fields, avatarAliases),
		Types:         []string{},
	}

	if rec.ExternalID == "" && rec.Username == "" {
		return models.UserRecord{}, fmt.Errorf("%w (%d fields)", ErrMalformedRecord, len(raw))
	}

	return rec, nil
}

func firstNonEmpty(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := fields[alias]; v != "" {
			return v
		}
	}
	return ""
}

// stringify renders a raw field value as a string. Numeric upstream ids
// arrive as float64 after JSON decoding and must not pick up an exponent.
func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1e15 {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
