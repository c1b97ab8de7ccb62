// Package main is the entry point of the Proxy Launcher engine.
//
// The engine sits between the launcher webview and the native host. It
// caches the settings document and browser list, serializes every write to
// the document, keeps the tray menu in step and serves all of it over a
// local REST and WebSocket API.
//
//	Webview → Engine (REST /api, WS /stream) → Host bridge (POST /invoke/{command})
//
// Configuration:
//   - Environment variables (PORT, BRIDGE_ADDR, BRIDGE_OFFLINE, BRIDGE_SEED, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Against the native host
//	./launcher -port 8000 -bridge http://127.0.0.1:1420
//
//	# Without a host, seeded from a fixture
//	./launcher -offline -seed testdata/settings.yaml -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
