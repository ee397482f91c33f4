package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	reportsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insta_tracker_reports_generated_total",
		Help: "Total reports written to the snapshot store",
	})
	malformedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insta_tracker_malformed_records_total",
		Help: "Raw input records dropped for lacking an identity key",
	})
	usersProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insta_tracker_users_processed_total",
		Help: "Normalized user records processed across all generation runs",
	})
	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insta_tracker_store_query_duration_seconds",
		Help:    "Snapshot store query duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
)

func init() {
	prometheus.MustRegister(reportsGenerated, malformedRecords, usersProcessed, queryDuration)
}

// observeQuery records the elapsed time of a store query
func observeQuery(query string, start time.Time) {
	queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
