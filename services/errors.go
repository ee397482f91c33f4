package services

import "errors"

var (
	// ErrMalformedRecord marks a raw entry that cannot be keyed because it
	// carries neither an id nor a username. Such entries are dropped
	// per-record, never fatal to a whole generation run.
	ErrMalformedRecord = errors.New("malformed record: missing both id and username")

	// ErrNoReports is returned by read operations on an empty store
	ErrNoReports = errors.New("no reports found")

	// ErrDuplicateReport is surfaced when a concurrent generation raced the
	// daily write and the follow-up read also failed.
	ErrDuplicateReport = errors.New("duplicate report for date")
)
