package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insta-tracker/models"
)

// generateMu serializes the check-then-write sequence of report generation.
// The unique _id (the date string) closes the race for writers outside this
// process.
var generateMu sync.Mutex

// GenerateOptions controls a single report generation run
type GenerateOptions struct {
	// Force replaces an already-stored report for today instead of
	// returning it untouched.
	Force bool
	// DryRun caps each raw input list to the configured limit and skips
	// all persistence.
	DryRun bool
}

// GenerateReport runs the full pipeline: normalize the raw follower and
// following lists, classify, diff against the chronologically preceding
// stored report, and persist the result keyed by today's date.
//
// Calling it twice on the same day without Force returns the stored report
// unchanged. The returned bool reports whether a new report was written.
func GenerateReport(ctx context.Context, rawFollowers, rawFollowing []map[string]any, opts GenerateOptions) (*models.Report, bool, error) {
	generateMu.Lock()
	defer generateMu.Unlock()

	id, generatedAt := reportDay(time.Now())

	if !opts.Force && !opts.DryRun {
		existing, err := GetReportByDate(ctx, id)
		if err == nil {
			slog.Info("Report already exists for today, returning stored report", "reportID", id)
			return existing, false, nil
		}
		if !errors.Is(err, ErrNoReports) {
			return nil, false, err
		}
	}

	limit := 0
	if opts.DryRun {
		limit = appConfig.DryRunLimit
	}

	snap := NormalizeSnapshot(rawFollowers, rawFollowing, limit)

	prev, err := previousReport(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNoReports) {
			return nil, false, err
		}
		prev = nil
	}

	delta := ComputeDelta(snap.Users, prev)
	report := AssembleReport(id, generatedAt, snap, delta, prev)

	if opts.DryRun {
		slog.Info("Dry run, skipping persistence",
			"reportID", id,
			"users", len(report.Users),
			"dropped", snap.Dropped,
		)
		return report, false, nil
	}

	if err := UpsertAccounts(ctx, snap.Users); err != nil {
		// The report itself is still consistent without the directory update
		slog.Error("Failed to upsert accounts directory", "error", err)
	}

	if err := writeReport(ctx, report, opts.Force); err != nil {
		if !errors.Is(err, ErrDuplicateReport) {
			return nil, false, err
		}
		// A concurrent writer won the race for today; retry as one re-read
		existing, readErr := GetReportByDate(ctx, id)
		if readErr != nil {
			return nil, false, fmt.Errorf("%w: %s", ErrDuplicateReport, id)
		}
		return existing, false, nil
	}

	reportsGenerated.Inc()
	slog.Info("Report generated",
		"reportID", id,
		"numFollowers", report.NumFollowers,
		"numFollowing", report.NumFollowing,
		"newFollowers", len(report.NewFollowers),
		"lostFollowers", len(report.LostFollowers),
		"dropped", snap.Dropped,
		"forced", opts.Force,
	)

	GetHub().Broadcast(Event{Type: "report_generated", Data: report})

	return report, true, nil
}

// AssembleReport merges the normalized snapshot and its delta into one
// immutable report document.
func AssembleReport(id string, generatedAt time.Time, snap *Snapshot, delta Delta, prev *models.Report) *models.Report {
	report := &models.Report{
		ID:            id,
		GeneratedAt:   generatedAt,
		CreatedAt:     time.Now().UTC(),
		NumFollowers:  snap.NumFollowers,
		NumFollowing:  snap.NumFollowing,
		Users:         snap.Users,
		NewFollowers:  delta.NewFollowers,
		LostFollowers: delta.LostFollowers,
		NewFollowing:  delta.NewFollowing,
		Unfollowed:    delta.Unfollowed,
		Stats: models.Stats{
			NewFollowersCount:  len(delta.NewFollowers),
			LostFollowersCount: len(delta.LostFollowers),
			NewFollowingCount:  len(delta.NewFollowing),
			UnfollowedCount:    len(delta.Unfollowed),
			NetFollowerChange:  len(delta.NewFollowers) - len(delta.LostFollowers),
			NetFollowingChange: len(delta.NewFollowing) - len(delta.Unfollowed),
		},
	}

	if prev != nil {
		report.Stats.PreviousReportDate = prev.ID
	}

	return report
}

// writeReport persists a report. Force replaces the whole document in one
// atomic upsert; otherwise a plain insert relies on the unique _id to detect
// a raced duplicate.
func writeReport(ctx context.Context, report *models.Report, force bool) error {
	defer observeQuery("write_report", time.Now())
	collection := GetDatabase().Collection(reportsCollection)

	if force {
		opts := options.Replace().SetUpsert(true)
		_, err := collection.ReplaceOne(ctx, bson.M{"_id": report.ID}, report, opts)
		return err
	}

	_, err := collection.InsertOne(ctx, report)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateReport, report.ID)
	}
	return err
}

// reportDay returns today's report id (YYYY-MM-DD) and its midnight
// timestamp in the configured report timezone.
func reportDay(now time.Time) (string, time.Time) {
	loc := time.UTC
	if appConfig != nil && appConfig.ReportLocation != nil {
		loc = appConfig.ReportLocation
	}
	n := now.In(loc)
	midnight := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return midnight.Format("2006-01-02"), midnight
}

// GetLatestReport returns the most recent report by date
func GetLatestReport(ctx context.Context) (*models.Report, error) {
	defer observeQuery("find_latest", time.Now())
	collection := GetDatabase().Collection(reportsCollection)

	opts := options.FindOne().SetSort(bson.M{"_id": -1})

	var report models.Report
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoReports
		}
		return nil, err
	}

	return &report, nil
}

// GetReportByDate returns the report for a calendar date (YYYY-MM-DD)
func GetReportByDate(ctx context.Context, date string) (*models.Report, error) {
	defer observeQuery("find_by_date", time.Now())
	collection := GetDatabase().Collection(reportsCollection)

	var report models.Report
	err := collection.FindOne(ctx, bson.M{"_id": date}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoReports
		}
		return nil, err
	}

	return &report, nil
}

// GetReportHistory returns the most recent reports, newest first. An empty
// store yields an empty slice, not an error.
func GetReportHistory(ctx context.Context, limit int) ([]models.Report, error) {
	defer observeQuery("find_history", time.Now())
	collection := GetDatabase().Collection(reportsCollection)

	if limit <= 0 {
		limit = 10
	}

	findOptions := options.Find().
		SetSort(bson.M{"_id": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// previousReport returns the chronologically nearest report before the
// given date, or ErrNoReports.
func previousReport(ctx context.Context, beforeDate string) (*models.Report, error) {
	defer observeQuery("find_previous", time.Now())
	collection := GetDatabase().Collection(reportsCollection)

	opts := options.FindOne().SetSort(bson.M{"_id": -1})

	var report models.Report
	err := collection.FindOne(ctx, bson.M{"_id": bson.M{"$lt": beforeDate}}, opts).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoReports
		}
		return nil, err
	}

	return &report, nil
}

// NotFollowingBack derives the "accounts you follow that don't follow back"
// view from the latest report, minus the configured exception usernames and
// any extra exceptions supplied by the caller.
func NotFollowingBack(ctx context.Context, extraExceptions []string) ([]models.NotFollowingBackEntry, error) {
	report, err := GetLatestReport(ctx)
	if err != nil {
		return nil, err
	}

	exceptions := make(map[string]struct{})
	if appConfig != nil {
		for _, name := range appConfig.NotFollowingBackExceptions {
			exceptions[name] = struct{}{}
		}
	}
	for _, name := range extraExceptions {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			exceptions[name] = struct{}{}
		}
	}

	return FilterNotFollowingBack(report, exceptions), nil
}

// FilterNotFollowingBack selects the following-only users of a report whose
// username is not in the exception set (compared case-insensitively).
func FilterNotFollowingBack(report *models.Report, exceptions map[string]struct{}) []models.NotFollowingBackEntry {
	entries := []models.NotFollowingBackEntry{}

	for _, u := range report.Users {
		if !u.HasType(models.RelationFollowing) || u.HasType(models.RelationFollower) {
			continue
		}
		username := strings.TrimSpace(u.Username)
		if username == "" {
			continue
		}
		if _, excluded := exceptions[strings.ToLower(username)]; excluded {
			continue
		}

		entries = append(entries, models.NotFollowingBackEntry{
			Username:      username,
			FullName:      u.FullName,
			ProfilePicURL: u.ProfilePicURL,
			InstagramURL:  fmt.Sprintf("https://www.instagram.com/%s/", username),
		})
	}

	return entries
}
