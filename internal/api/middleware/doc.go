// Package middleware provides the HTTP middleware of the local API.
//
//   - CORS: admits the launcher webview origins
//   - RateLimit: per-IP token bucket with idle client cleanup
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
