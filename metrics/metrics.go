// Package metrics holds the Prometheus collectors for gowiki. The wiki client
// feeds the api, auth and edit subsystems; the MCP tool handlers feed mcp.
// Collectors register on the default registry, which `wiki serve` exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "gowiki"

const (
	subsystemAPI  = "api"
	subsystemAuth = "auth"
	subsystemEdit = "edit"
	subsystemMCP  = "mcp"
)

// Label values for the status label
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// api.php round trips
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemAPI,
		Name:      "requests_total",
		Help:      "api.php requests by action and status",
	}, []string{"action", "status"})

	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: subsystemAPI,
		Name:      "latency_seconds",
		Help:      "api.php round trip time by action",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"action"})

	// APIErrors is keyed by the API error code, or http_<status> / transport / read
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemAPI,
		Name:      "errors_total",
		Help:      "Failed api.php requests by action and error code",
	}, []string{"action", "error_code"})
)

// login handshake
var AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: subsystemAuth,
	Name:      "failures_total",
	Help:      "Failed logins by reason",
}, []string{"reason"})

// saves, moves and uploads
var (
	EditOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemEdit,
		Name:      "operations_total",
		Help:      "Mutations by operation (save, move, upload) and status",
	}, []string{"operation", "status"})

	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: subsystemEdit,
		Name:      "content_size_bytes",
		Help:      "Size of fetched, saved and uploaded content",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"operation"})
)

// MCP tool calls
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemMCP,
		Name:      "tool_calls_total",
		Help:      "MCP tool calls by tool and status",
	}, []string{"tool", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: subsystemMCP,
		Name:      "tool_duration_seconds",
		Help:      "MCP tool call duration by tool",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"tool"})

	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: subsystemMCP,
		Name:      "tool_calls_in_flight",
		Help:      "MCP tool calls waiting for or holding the client",
	}, []string{"tool"})

	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemMCP,
		Name:      "panics_recovered_total",
		Help:      "Panics recovered in tool handlers",
	}, []string{"tool"})
)

func status(success bool) string {
	if success {
		return StatusSuccess
	}
	return StatusError
}

// RecordRequest records a finished MCP tool call
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, status(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records an api.php round trip. errorCode is empty on success.
func RecordAPICall(action string, duration float64, success bool, errorCode string) {
	APIRequestsTotal.WithLabelValues(action, status(success)).Inc()
	APILatency.WithLabelValues(action).Observe(duration)
	if errorCode != "" {
		APIErrors.WithLabelValues(action, errorCode).Inc()
	}
}

// RecordEdit records a save, move or upload
func RecordEdit(operation string, success bool) {
	EditOperations.WithLabelValues(operation, status(success)).Inc()
}
