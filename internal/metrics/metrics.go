package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_vault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_vault_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_vault_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Ingestion pipeline metrics
var (
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_ingest_total",
			Help: "Total number of upload ingestions by outcome",
		},
		[]string{"outcome"}, // "committed", "rejected"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_vault_ingest_stage_duration_seconds",
			Help:    "Duration of each ingestion stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // "normalize", "extract", "thumbnail", "persist"
	)

	FormatConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_format_conversions_total",
			Help: "Total number of special-format conversions by status",
		},
		[]string{"status"}, // "success", "error"
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"}, // "success", "failure"
	)
)

// Enrichment metrics
var (
	EnrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_vault_enrichment_total",
			Help: "Total number of enrichment attempts by kind and status",
		},
		[]string{"kind", "status"}, // kind: "tagging", "geocode"
	)

	TagsSynthesizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_vault_tags_synthesized_total",
			Help: "Total number of tags attached by the vision tagger",
		},
	)
)
