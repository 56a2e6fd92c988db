package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgepair_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Log pipeline metrics
	RecordsPolled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_records_polled_total",
			Help: "Log records received from a connector",
		},
		[]string{"connector"},
	)

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_poll_errors_total",
			Help: "Failed log poll cycles",
		},
		[]string{"connector"},
	)

	RecordsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_records_classified_total",
			Help: "Log records classified, by matching rule",
		},
		[]string{"rule"},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_records_skipped_total",
			Help: "Log records not routed to any device",
		},
		[]string{"reason"}, // "unknown_device"
	)

	NarrativeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgepair_narrative_dropped_total",
			Help: "Narrative entries evicted before being narrated",
		},
	)

	// Orchestrator metrics
	OrchestratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_orchestrator_requests_total",
			Help: "Deploy and execute requests sent to the orchestrator",
		},
		[]string{"op", "outcome"}, // op: "deploy" or "run"; outcome: "ok" or "failed"
	)

	HealthProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgepair_health_probes_total",
			Help: "Health probes, by target and result",
		},
		[]string{"target", "result"},
	)
)
