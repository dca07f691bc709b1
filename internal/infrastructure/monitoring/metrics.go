package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamesource"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Lookup metrics
	LookupsTotal   *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	FramesScanned  prometheus.Histogram

	// Browser metrics
	LaunchesTotal  *prometheus.CounterVec
	LaunchDuration prometheus.Histogram
	SessionsActive prometheus.Gauge
	PoolIdle       prometheus.Gauge
	BreakerState   *prometheus.GaugeVec

	startTime time.Time

	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current HTTP totals, served by /health
type MetricsSnapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	TotalDuration float64 `json:"-"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// NewMetrics creates a metrics collector on its own registry. Each
// instance is independent so tests can build as many as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Source lookups by engine and outcome",
			},
			[]string{"engine", "outcome"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_duration_seconds",
				Help:      "End-to-end source lookup duration in seconds",
				Buckets:   []float64{.25, .5, 1, 2, 3, 5, 10, 20, 30, 60},
			},
			[]string{"engine"},
		),
		FramesScanned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frames_scanned",
				Help:      "Frames inspected per lookup",
				Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),

		LaunchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "browser_launches_total",
				Help:      "Browser session launches by status",
			},
			[]string{"status"},
		),
		LaunchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "browser_launch_duration_seconds",
				Help:      "Browser session launch duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "browser_sessions_active",
				Help:      "Browser sessions currently checked out",
			},
		),
		PoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "browser_pool_idle",
				Help:      "Idle sessions waiting in the browser pool",
			},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordLookup records the outcome of one source lookup
func (m *Metrics) RecordLookup(engine, outcome string, duration time.Duration, frames int) {
	m.LookupsTotal.WithLabelValues(engine, outcome).Inc()
	m.LookupDuration.WithLabelValues(engine).Observe(duration.Seconds())
	if frames > 0 {
		m.FramesScanned.Observe(float64(frames))
	}
}

// RecordLaunch records a browser session launch attempt
func (m *Metrics) RecordLaunch(status string, duration time.Duration) {
	m.LaunchesTotal.WithLabelValues(status).Inc()
	m.LaunchDuration.Observe(duration.Seconds())
}

// IncSessionsActive marks a session as checked out
func (m *Metrics) IncSessionsActive() {
	m.SessionsActive.Inc()
}

// DecSessionsActive marks a session as released
func (m *Metrics) DecSessionsActive() {
	m.SessionsActive.Dec()
}

// SetPoolIdle sets the number of idle pooled sessions
func (m *Metrics) SetPoolIdle(count int) {
	m.PoolIdle.Set(float64(count))
}

// SetBreakerState publishes a breaker state as its numeric value
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// Snapshot returns the HTTP totals with average latency filled in
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.TotalRequests > 0 {
		snap.AvgLatencyMs = snap.TotalDuration / float64(snap.TotalRequests) * 1000
	}
	return snap
}

// Uptime returns how long the collector has existed
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
