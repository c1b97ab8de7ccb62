package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Operation metrics (bridge commands, mutations)
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	BridgeSwallowed   *prometheus.CounterVec

	// Query cache metrics
	CacheRequests  *prometheus.CounterVec
	CacheFetches   *prometheus.CounterVec
	CacheRetries   *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec

	// Tray metrics
	TrayRebuilds  *prometheus.CounterVec
	TrayMenuItems prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	registry *prometheus.Registry

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	Mutations         int64   `json:"mutations"`
	MutationFailures  int64   `json:"mutation_failures"`
	Conflicts         int64   `json:"conflicts"`
	TrayRebuilds      int64   `json:"tray_rebuilds"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"total_duration_seconds"`
	RequestCount      int64   `json:"request_count"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several engines (and tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg)
}

// NewMetricsWith registers the collectors on the given registry
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),
		registry:  reg,

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launcher_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launcher_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launcher_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Operation metrics
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_operations_total",
				Help: "Total number of bridge commands and mutations",
			},
			[]string{"component", "operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launcher_operation_duration_seconds",
				Help:    "Bridge command and mutation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"component", "operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_operation_errors_total",
				Help: "Total number of failed operations by error type",
			},
			[]string{"component", "operation", "error_type"},
		),
		BridgeSwallowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_bridge_swallowed_errors_total",
				Help: "Best-effort bridge failures replaced by a default value",
			},
			[]string{"command"},
		),

		// Query cache metrics
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_cache_requests_total",
				Help: "Cache reads by outcome (hit, stale, miss)",
			},
			[]string{"key", "result"},
		),
		CacheFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_cache_fetches_total",
				Help: "Completed fetch cycles by status",
			},
			[]string{"key", "status"},
		),
		CacheRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_cache_retries_total",
				Help: "Fetch attempts after the first within a cycle",
			},
			[]string{"key"},
		),
		CacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_cache_evictions_total",
				Help: "Entries garbage-collected after their gc window",
			},
			[]string{"key"},
		),

		// Tray metrics
		TrayRebuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_tray_rebuilds_total",
				Help: "Tray menu rebuilds by result (installed, discarded, failed)",
			},
			[]string{"result"},
		),
		TrayMenuItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "launcher_tray_menu_items",
				Help: "Number of launch entries in the installed tray menu",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "launcher_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "launcher_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the collectors live in
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordOperation records a bridge command or mutation
func (m *Metrics) RecordOperation(component, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(component, operation, status).Inc()
	m.OperationDuration.WithLabelValues(component, operation).Observe(duration.Seconds())

	if component == ComponentMutation {
		m.mu.Lock()
		m.snapshot.Mutations++
		if status != StatusSuccess {
			m.snapshot.MutationFailures++
		}
		m.mu.Unlock()
	}
}

// RecordOperationError records a failed operation
func (m *Metrics) RecordOperationError(component, operation, errorType string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(component, operation, errorType).Inc()

	if errorType == ErrorConflict {
		m.mu.Lock()
		m.snapshot.Conflicts++
		m.mu.Unlock()
	}
}

// RecordSwallowed records a best-effort bridge failure
func (m *Metrics) RecordSwallowed(command string) {
	if m == nil {
		return
	}
	m.BridgeSwallowed.WithLabelValues(command).Inc()
}

// RecordCacheRequest records a cache read outcome
func (m *Metrics) RecordCacheRequest(key, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(key, result).Inc()
}

// RecordCacheFetch records the end of a fetch cycle
func (m *Metrics) RecordCacheFetch(key, status string) {
	if m == nil {
		return
	}
	m.CacheFetches.WithLabelValues(key, status).Inc()
}

// IncCacheRetries increments the retry counter for a key
func (m *Metrics) IncCacheRetries(key string) {
	if m == nil {
		return
	}
	m.CacheRetries.WithLabelValues(key).Inc()
}

// IncCacheEvictions increments the eviction counter for a key
func (m *Metrics) IncCacheEvictions(key string) {
	if m == nil {
		return
	}
	m.CacheEvictions.WithLabelValues(key).Inc()
}

// RecordTrayRebuild records a menu rebuild outcome
func (m *Metrics) RecordTrayRebuild(result string, items int) {
	if m == nil {
		return
	}
	m.TrayRebuilds.WithLabelValues(result).Inc()
	if result == RebuildInstalled {
		m.TrayMenuItems.Set(float64(items))
		m.mu.Lock()
		m.snapshot.TrayRebuilds++
		m.mu.Unlock()
	}
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
