package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values shared by the recording sites
const (
	ComponentBridge   = "bridge"
	ComponentMutation = "mutation"

	StatusSuccess = "success"
	StatusError   = "error"

	ErrorConflict  = "conflict"
	ErrorNotFound  = "not_found"
	ErrorSave      = "save"
	ErrorTransport = "transport"
	ErrorHost      = "host"

	CacheHit   = "hit"
	CacheStale = "stale"
	CacheMiss  = "miss"

	RebuildInstalled = "installed"
	RebuildDiscarded = "discarded"
	RebuildFailed    = "failed"
)

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Snapshot returns current values for the JSON stats endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
