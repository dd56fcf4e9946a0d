package gomcp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "mcp"

// Metrics records dispatch and connection activity on a private prometheus
// registry. A nil *Metrics is valid and records nothing, so the server runs
// without any metrics wiring unless one is attached via UseMetrics.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	wsConnections   prometheus.Gauge
	framesDropped   prometheus.Counter
}

// NewMetrics builds a Metrics provider backed by its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "requests_total",
		Help:      "JSON-RPC requests dispatched, by method and status.",
	}, []string{"method", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC dispatch latency in seconds, by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	m.wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "ws_connections",
		Help:      "Open WebSocket connections.",
	})

	m.framesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "ws_frames_dropped_total",
		Help:      "Inbound WebSocket frames dropped as malformed.",
	})

	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.wsConnections, m.framesDropped)
	return m
}

// Handler serves the Prometheus exposition for this provider. On a nil
// receiver it serves an empty exposition so the route can always be mounted.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

func (m *Metrics) frameDropped() {
	if m == nil {
		return
	}
	m.framesDropped.Inc()
}
