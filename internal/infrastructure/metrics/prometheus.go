// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamgate"

var (
	// TranscodesTotal tracks completed transcode invocations.
	// Labels:
	//   - quality: 480p, 720p, 1080p
	//   - status: success, error
	TranscodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcodes_total",
			Help:      "Total number of transcode invocations",
		},
		[]string{"quality", "status"},
	)

	// TranscodeDurationSeconds observes wall-clock transcode time.
	TranscodeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcode_duration_seconds",
			Help:      "Wall-clock duration of transcode invocations",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"quality"},
	)

	// ActiveStreams tracks the number of entries in the job registry.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of active stream jobs in the registry",
		},
	)

	// AdmissionRejectedTotal counts requests rejected at the concurrency cap.
	AdmissionRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_rejected_total",
			Help:      "Total number of stream requests rejected by admission control",
		},
	)

	// PlaylistCacheTotal tracks playlist cache lookups.
	// Labels:
	//   - status: hit, miss
	PlaylistCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_cache_total",
			Help:      "Total number of playlist cache lookups",
		},
		[]string{"status"},
	)

	// CleanupsTotal tracks output directory purges.
	// Labels:
	//   - trigger: idle, stop, failure
	CleanupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanups_total",
			Help:      "Total number of stream output purges",
		},
		[]string{"trigger"},
	)

	// ProbeCacheTotal tracks metadata cache operations.
	// Labels:
	//   - status: hit, miss, error
	ProbeCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_cache_total",
			Help:      "Total number of probe cache lookups",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal tracks served HTTP requests.
	// Labels:
	//   - method: HTTP method
	//   - path: chi route pattern, not the raw URL
	//   - status: numeric status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds observes request handling latency.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SingleflightRequestsTotal tracks transcode request coalescing.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache status label values.
const (
	CacheStatusHit   = "hit"
	CacheStatusMiss  = "miss"
	CacheStatusError = "error"
)

// Cleanup trigger label values.
const (
	CleanupTriggerIdle    = "idle"
	CleanupTriggerStop    = "stop"
	CleanupTriggerFailure = "failure"
)

// Singleflight result label values.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
