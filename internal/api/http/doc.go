// Package http provides the local REST API the launcher webview talks to.
//
// Endpoints:
//   - Health: / and /health
//   - Sites: /api/sites, /api/sites/:id, /api/sites/:id/launch
//   - Proxies: /api/proxies, /api/proxies/:id, /api/proxies/:id/launch
//   - Dialogs: /api/forms/site[/:id], /api/forms/proxy[/:id]
//   - Browsers: /api/browsers, /api/browsers/:id/path, /api/browsers/:id/browse
//   - Settings: /api/settings, /api/settings/path, /api/settings/export, /api/settings/import
//   - Preferences: /api/preferences, /api/autostart
//   - Window: /api/window/toggle, /api/quit
//   - Debug: /api/debug/tray, /api/debug/cache, /api/debug/spans
//   - Metrics: /metrics (Prometheus), /metrics/json
//
// Errors are {"error": "..."} with 400 for invalid forms (plus a "fields"
// map), 404 for unknown records, 409 when a replace lost a race and 502
// when the host refused a save.
//
// Example Usage:
//
//	handlers := http.NewHandlers(eng, breaker, logger)
//	handlers.Register(router)
package http
