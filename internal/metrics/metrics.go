// Package metrics exposes Prometheus instrumentation for the dashboard
// backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the backend's instrument set backed by its own registry,
// so tests never collide on the default global one.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sandboxRuns     *prometheus.CounterVec
	assistantCalls  *prometheus.CounterVec
	activeTokens    prometheus.GaugeFunc
}

// New creates a Metrics set. tokenCount reports the number of live auth
// tokens; pass nil to skip that gauge.
func New(tokenCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "vipudev",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by route pattern and status code.",
		}, []string{"pattern", "status"}),
		requestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vipudev",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pattern"}),
		sandboxRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "vipudev",
			Name:      "sandbox_runs_total",
			Help:      "Sandbox executions, by mode (host|container) and outcome (ok|timeout|error).",
		}, []string{"mode", "outcome"}),
		assistantCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "vipudev",
			Name:      "assistant_calls_total",
			Help:      "Upstream model calls, by kind (chat|analyze|image) and outcome (ok|error).",
		}, []string{"kind", "outcome"}),
	}

	if tokenCount != nil {
		m.activeTokens = promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vipudev",
			Name:      "active_tokens",
			Help:      "Number of currently valid session tokens.",
		}, func() float64 { return float64(tokenCount()) })
	}

	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(pattern string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
}

// ObserveSandboxRun records one sandbox execution.
func (m *Metrics) ObserveSandboxRun(mode, outcome string) {
	m.sandboxRuns.WithLabelValues(mode, outcome).Inc()
}

// ObserveAssistantCall records one upstream model call.
func (m *Metrics) ObserveAssistantCall(kind, outcome string) {
	m.assistantCalls.WithLabelValues(kind, outcome).Inc()
}
