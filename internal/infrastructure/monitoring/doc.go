/*
Package monitoring provides Prometheus metrics for the launcher engine.

# Overview

Every Metrics value owns a private registry. The engine, the API and the
tests each construct their own without tripping duplicate registration.
All Record* methods are safe on a nil *Metrics, so components can treat
metrics as optional.

# Features

- HTTP request metrics (latency, throughput, size) keyed by route template
- Operation metrics for bridge commands and settings mutations
- Query cache hits, stale reads, misses, fetch cycles, retries, evictions
- Tray rebuild outcomes (installed, discarded, failed)
- WebSocket change-stream connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, monitoring.ComponentMutation, "add_site")
	// ... perform operation ...
	timer.Stop(monitoring.StatusSuccess)
*/
package monitoring
