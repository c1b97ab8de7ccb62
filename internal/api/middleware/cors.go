package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins []string
	// AllowSchemes admits any origin with one of these scheme prefixes,
	// e.g. "tauri://" for the packaged webview
	AllowSchemes     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig admits the launcher webview in development and packaged builds.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{
			"http://localhost:1420",
			"http://127.0.0.1:1420",
			"http://tauri.localhost",
			"https://tauri.localhost",
		},
		AllowSchemes: []string{"tauri://"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
			"X-Trace-ID",
			"X-Span-ID",
		},
		ExposeHeaders:    []string{"X-Trace-ID", "X-Span-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(cfg.AllowSchemes) > 0 {
		schemes := cfg.AllowSchemes
		listed := make(map[string]bool, len(cfg.AllowOrigins))
		for _, o := range cfg.AllowOrigins {
			listed[o] = true
		}
		c.AllowOriginFunc = func(origin string) bool {
			if listed[origin] {
				return true
			}
			for _, s := range schemes {
				if strings.HasPrefix(origin, s) {
					return true
				}
			}
			return false
		}
	}
	return cors.New(c)
}
