// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the assistant.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// CONVERSATION METRICS
// =============================================================================

var (
	conversationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_conversation_runs_total",
			Help: "Total number of conversation graph runs",
		},
		[]string{"channel", "status"}, // status: success, timeout, recursion_limit, error
	)

	conversationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_conversation_duration_seconds",
			Help:    "Conversation graph run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"channel"},
	)

	conversationStepsTotal = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_conversation_steps",
			Help:    "Node executions per conversation graph run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 20, 25},
		},
		[]string{"channel"},
	)

	routeCoercionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_route_coercions_total",
			Help: "Unknown routing targets corrected to the orchestrator",
		},
		[]string{"target"},
	)
)

// =============================================================================
// AGENT METRICS
// =============================================================================

var (
	agentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_agent_executions_total",
			Help: "Total number of agent executions",
		},
		[]string{"agent", "status"}, // status: success, error
	)

	agentDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_agent_duration_seconds",
			Help:    "Agent execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"agent"},
	)
)

// =============================================================================
// TOOL METRICS
// =============================================================================

var (
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tool_calls_total",
			Help: "Total number of tool gateway calls",
		},
		[]string{"tool", "status"}, // status: success, error
	)

	toolDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_tool_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"tool"},
	)
)

// =============================================================================
// HTTP METRICS
// =============================================================================

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route"},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordConversationRun records one graph run.
func RecordConversationRun(channel string, status string, steps int, durationMS int) {
	conversationRunsTotal.WithLabelValues(channel, status).Inc()
	conversationDurationSeconds.WithLabelValues(channel).Observe(float64(durationMS) / 1000.0)
	conversationStepsTotal.WithLabelValues(channel).Observe(float64(steps))
}

// RecordRouteCoercion records a routing target that was not a known node.
func RecordRouteCoercion(target string) {
	routeCoercionsTotal.WithLabelValues(target).Inc()
}

// RecordAgentExecution records agent execution metrics.
func RecordAgentExecution(agent string, status string, durationMS int) {
	agentExecutionsTotal.WithLabelValues(agent, status).Inc()
	agentDurationSeconds.WithLabelValues(agent).Observe(float64(durationMS) / 1000.0)
}

// RecordToolCall records tool gateway call metrics.
func RecordToolCall(tool string, status string, durationMS int) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolDurationSeconds.WithLabelValues(tool).Observe(float64(durationMS) / 1000.0)
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(route string, code string, durationMS int) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(route).Observe(float64(durationMS) / 1000.0)
}
