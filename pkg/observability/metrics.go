// Package observability provides Prometheus metrics for the Mistral adapter
// and an instrumented HTTP transport for outbound API calls.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// WaitBuckets covers time spent queued for a request permit.
var WaitBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

var (
	// HTTPRequestsTotal counts outbound HTTP requests by status code and method.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_http_requests_total",
			Help: "Outbound HTTP requests",
		},
		[]string{"code", "method"},
	)

	// HTTPRequestDuration records time to response headers for outbound requests.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mistral_http_request_duration_seconds",
			Help:    "Outbound HTTP request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// HTTPRequestsInFlight tracks outbound requests awaiting response headers.
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mistral_http_requests_in_flight",
			Help: "Outbound HTTP requests in flight",
		},
	)

	// CompletionsTotal counts completion streams by model and final status
	// (ok, error, canceled).
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_completions_total",
			Help: "Completion streams",
		},
		[]string{"model", "status"},
	)

	// CompletionDuration records the full life of a completion stream.
	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mistral_completion_duration_seconds",
			Help:    "Completion stream duration",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// TokensTotal counts tokens reported by the API by direction (input/output).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)

	// ToolCallsTotal counts reassembled tool calls by outcome
	// (ok, parse_error, incomplete).
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_tool_calls_total",
			Help: "Reassembled tool calls",
		},
		[]string{"model", "outcome"},
	)

	// UnexpectedFinishReasonsTotal counts finish reasons that were mapped to
	// end_turn because they were not recognised.
	UnexpectedFinishReasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_unexpected_finish_reasons_total",
			Help: "Unrecognised finish reasons",
		},
		[]string{"model", "reason"},
	)

	// LimiterWait records how long callers queued for a request permit.
	LimiterWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mistral_limiter_wait_seconds",
			Help:    "Time spent waiting for a request permit",
			Buckets: WaitBuckets,
		},
	)

	// LimiterInUse tracks permits currently held.
	LimiterInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mistral_limiter_permits_in_use",
			Help: "Request permits in use",
		},
	)

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)

	// StreamAnomaliesTotal counts recoverable stream errors that the tool
	// loop skipped instead of failing the run.
	StreamAnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_stream_anomalies_total",
			Help: "Recoverable stream errors skipped by the tool loop",
		},
		[]string{"model", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		CompletionsTotal,
		CompletionDuration,
		TokensTotal,
		ToolCallsTotal,
		UnexpectedFinishReasonsTotal,
		LimiterWait,
		LimiterInUse,
		ToolExecutionsTotal,
		StreamAnomaliesTotal,
	)
}
