// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCallDuration tracks the duration of a single generation or judge call.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model", "kind", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// RunItemsTotal counts orchestrator items by phase and outcome.
	RunItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_items_total",
			Help: "Items processed by the run orchestrator",
		},
		[]string{"phase", "outcome"},
	)

	// RunPhase is 1 for the orchestrator's current phase and 0 for the others.
	RunPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "run_phase",
			Help: "Current run orchestrator phase",
		},
		[]string{"phase"},
	)

	// RunsPersisted counts run snapshots written to the store.
	RunsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_persisted_total",
			Help: "Run snapshots persisted",
		},
		[]string{"status", "result"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// AnnotationsSaved counts conversation annotation writes.
	AnnotationsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "annotations_saved_total",
			Help: "Conversation annotations saved",
		},
	)

	// SnippetNotesSaved counts snippet note writes.
	SnippetNotesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snippet_notes_saved_total",
			Help: "Snippet open-coding notes saved",
		},
	)
)

var phases = []string{"idle", "generating", "generated", "evaluating", "evaluated"}

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for one completion call.
func RecordLLMCall(provider, model, kind, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(provider, model, kind, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordRunItem records one orchestrator item.
func RecordRunItem(phase, outcome string) {
	RunItemsTotal.WithLabelValues(phase, outcome).Inc()
}

// SetRunPhase flips the phase gauge to the given phase.
func SetRunPhase(phase string) {
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		RunPhase.WithLabelValues(p).Set(v)
	}
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
