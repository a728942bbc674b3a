// Package metrics holds the prometheus collectors of the fan-out pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScopePushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_scope_pushes_total",
		Help: "Entries added to timeline scopes, by scope kind.",
	}, []string{"kind"})

	ScopeRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_scope_removals_total",
		Help: "Entries removed from timeline scopes, by scope kind.",
	}, []string{"kind"})

	RealtimePublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_realtime_events_total",
		Help: "Realtime events published, by event type.",
	}, []string{"event"})

	RealtimeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timeline_realtime_publish_failures_total",
		Help: "Realtime publish batches that failed to reach redis.",
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_jobs_processed_total",
		Help: "Outbox jobs processed, by kind and outcome.",
	}, []string{"kind", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timeline_job_duration_seconds",
		Help:    "Outbox job handler duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	JobLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_job_lag_seconds",
		Help:    "Time between enqueue and completion of an outbox job.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timeline_http_request_duration_seconds",
		Help:    "HTTP request latency, by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
