// Package metrics exposes Prometheus instrumentation for the bridge.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agui_pipe_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agui_pipe_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RunsTotal counts bridged runs by delivery mode and outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agui_pipe_runs_total",
			Help: "Total number of bridged agent runs",
		},
		[]string{"mode", "status"},
	)

	// ChunksEmitted counts output chunks delivered to the front end
	ChunksEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agui_pipe_chunks_emitted_total",
			Help: "Total number of output chunks emitted",
		},
	)

	// FrameDecodeFailures counts undecodable event frames
	FrameDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agui_pipe_frame_decode_failures_total",
			Help: "Total number of event frames that failed to decode",
		},
	)

	// ToolCalls counts tool invocations observed in event streams
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agui_pipe_tool_calls_total",
			Help: "Total number of tool calls surfaced to users",
		},
		[]string{"tool"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware creates an HTTP middleware that records request metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// normalizePath keeps label cardinality bounded
func normalizePath(path string) string {
	switch path {
	case "/health", "/metrics", "/v1/models", "/v1/chat/completions":
		return path
	default:
		return "other"
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records one bridged run outcome
func RecordRun(mode, status string) {
	RunsTotal.WithLabelValues(mode, status).Inc()
}

// RecordToolCall records a tool invocation surfaced to the user
func RecordToolCall(tool string) {
	ToolCalls.WithLabelValues(tool).Inc()
}

// RecordDecodeFailure records one undecodable event frame
func RecordDecodeFailure() {
	FrameDecodeFailures.Inc()
}

// RecordChunk records one emitted output chunk
func RecordChunk() {
	ChunksEmitted.Inc()
}
