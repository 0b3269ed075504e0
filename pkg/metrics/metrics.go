// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed counts processed messages by final outcome.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_messages_processed_total",
			Help: "Messages processed, by identity and outcome",
		},
		[]string{"identity", "outcome"},
	)

	// DuplicatesSkipped counts ledger short-circuits.
	DuplicatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_duplicates_skipped_total",
			Help: "Messages skipped because their id was already in the ledger",
		},
		[]string{"identity"},
	)

	// BackendCalls counts calendar backend mutations.
	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_backend_calls_total",
			Help: "Calendar backend calls, by operation and status",
		},
		[]string{"op", "status"},
	)

	// InterpreterDuration tracks interpreter call latency.
	InterpreterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_interpreter_duration_seconds",
			Help:    "Interpreter call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	// ResolverFailures counts time phrases that could not be resolved.
	ResolverFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_resolver_failures_total",
			Help: "Time phrases that could not be resolved",
		},
		[]string{"identity"},
	)

	// ActiveThreads gauges tracked threads per identity.
	ActiveThreads = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_active_threads",
			Help: "Thread states currently tracked",
		},
		[]string{"identity"},
	)

	// CycleDuration tracks one poll cycle end to end.
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"identity"},
	)
)

// RecordBackendCall records one calendar mutation attempt.
func RecordBackendCall(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BackendCalls.WithLabelValues(op, status).Inc()
}

// RecordMessage records the final outcome for one processed message.
func RecordMessage(identity, outcome string) {
	MessagesProcessed.WithLabelValues(identity, outcome).Inc()
}
