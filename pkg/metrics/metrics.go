package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors shared by the engine, collaborators and the API.
// Registered on the default registry via promauto.
var (
	// Engine
	EngineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_engine_runs_total",
			Help: "Total number of engine runs by outcome",
		},
		[]string{"outcome"}, // ok, empty, cancelled
	)

	EngineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signals_engine_run_duration_seconds",
			Help:    "Duration of engine runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_candidates_total",
			Help: "Candidate signals that passed the registry gate",
		},
		[]string{"strategy"},
	)

	EvaluatorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_evaluator_failures_total",
			Help: "Evaluator invocations that panicked and were skipped",
		},
		[]string{"strategy"},
	)

	PublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_published_total",
			Help: "Signals included in final results",
		},
		[]string{"direction"},
	)

	// Collaborators
	MarketDataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_requests_total",
			Help: "Market data requests by source and status",
		},
		[]string{"source", "status"},
	)

	// API
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signals_stream_clients",
			Help: "Connected websocket clients",
		},
	)

	StreamDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signals_stream_dropped_total",
			Help: "Broadcast messages dropped for slow websocket clients",
		},
	)
)

// Run outcomes
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeCancelled = "cancelled"
)
