package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type engineMetrics struct {
	operations *prometheus.CounterVec
	settled    *prometheus.CounterVec
	escrowed   *prometheus.CounterVec
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics

	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics
)

// RPCMetrics returns the lazily-initialised registry used to record RPC
// activity.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total RPC errors segmented by method and status code.",
			}, []string{"method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "arena",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by rate limiting.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.latency,
			rpcRegistry.throttles,
		)
	})
	return rpcRegistry
}

// Observe records the outcome of an RPC request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *rpcMetrics) Observe(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit" so dashboards stay consistent.
func (m *rpcMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// EngineMetrics returns the lazily-initialised registry used to record
// settlement engine activity.
func EngineMetrics() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations segmented by engine and operation.",
			}, []string{"engine", "op"}),
			settled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "engine",
				Name:      "settlements_total",
				Help:      "Settlements segmented by engine and outcome.",
			}, []string{"engine", "outcome"}),
			escrowed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arena",
				Subsystem: "engine",
				Name:      "escrowed_base_units_total",
				Help:      "Base units moved into escrow segmented by engine.",
			}, []string{"engine"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.settled,
			engineRegistry.escrowed,
		)
	})
	return engineRegistry
}

// RecordOperation counts one engine operation.
func (m *engineMetrics) RecordOperation(engine, op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(engine, op).Inc()
}

// RecordSettlement counts one settlement with its outcome ("win", "draw").
func (m *engineMetrics) RecordSettlement(engine, outcome string) {
	if m == nil {
		return
	}
	m.settled.WithLabelValues(engine, outcome).Inc()
}

// RecordEscrowed adds the amount moved into escrow.
func (m *engineMetrics) RecordEscrowed(engine string, amount uint64) {
	if m == nil {
		return
	}
	m.escrowed.WithLabelValues(engine).Add(float64(amount))
}
