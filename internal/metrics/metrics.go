// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "daybrief_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Provider fetch outcomes, one per provider per run.
	ProviderFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_provider_fetch_total",
			Help: "Provider fetch attempts by outcome",
		},
		[]string{"provider", "status"},
	)

	ProviderItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_provider_items_total",
			Help: "Content items returned by each provider",
		},
		[]string{"provider"},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_pipeline_runs_total",
			Help: "Pipeline runs by result",
		},
		[]string{"result"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "daybrief_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	ClassificationBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_classification_batches_total",
			Help: "Classification batches by result",
		},
		[]string{"result"},
	)

	ScheduleRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_schedule_runs_total",
			Help: "Scheduled runs by result",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daybrief_events_published_total",
			Help: "Briefing events published by result",
		},
		[]string{"result"},
	)
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultDegraded = "degraded"
)
