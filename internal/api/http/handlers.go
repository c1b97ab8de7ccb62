package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/engine"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/id"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// BreakerReporter is implemented by bridges guarded by a circuit breaker
type BreakerReporter interface {
	BreakerState() resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	engine  *engine.Engine
	breaker BreakerReporter
	metrics *HandlerMetrics
	logger  *zap.Logger
	uiLog   *zap.Logger
}

// NewHandlers creates a new handler set. breaker may be nil.
func NewHandlers(e *engine.Engine, breaker BreakerReporter, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		engine:  e,
		breaker: breaker,
		metrics: NewHandlerMetrics(e.Metrics()),
		logger:  logger,
		uiLog:   logger.Named("ui"),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.engine.Metrics().Handler()))
	r.GET("/metrics/json", h.MetricsJSON)

	api := r.Group("/api")

	api.GET("/sites", h.ListSites)
	api.POST("/sites", h.CreateSite)
	api.PUT("/sites/:id", h.UpdateSite)
	api.DELETE("/sites/:id", h.DeleteSite)
	api.POST("/sites/:id/launch", h.LaunchSite)

	api.GET("/proxies", h.ListProxies)
	api.POST("/proxies", h.CreateProxy)
	api.PUT("/proxies/:id", h.UpdateProxy)
	api.DELETE("/proxies/:id", h.DeleteProxy)
	api.POST("/proxies/:id/launch", h.LaunchProxy)

	api.GET("/forms/site", h.SiteForm)
	api.GET("/forms/site/:id", h.SiteForm)
	api.GET("/forms/proxy", h.ProxyForm)
	api.GET("/forms/proxy/:id", h.ProxyForm)

	api.GET("/browsers", h.ListBrowsers)
	api.PUT("/browsers/:id/path", h.SetBrowserPath)
	api.POST("/browsers/:id/browse", h.BrowseBrowserPath)

	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.ReplaceSettings)
	api.GET("/settings/path", h.SettingsPath)
	api.POST("/settings/export", h.ExportSettings)
	api.POST("/settings/import", h.ImportSettings)

	api.GET("/preferences", h.GetPreferences)
	api.PUT("/preferences", h.UpdatePreferences)

	api.GET("/autostart", h.GetAutostart)
	api.PUT("/autostart", h.SetAutostart)
	api.POST("/window/toggle", h.ToggleWindow)
	api.POST("/quit", h.Quit)

	api.POST("/logs", h.StreamLogs)

	debug := api.Group("/debug")
	debug.GET("/tray", h.TrayStatus)
	debug.POST("/tray/icon", h.ClickTrayIcon)
	debug.POST("/tray/items/:id", h.ActivateTrayItem)
	debug.GET("/cache", h.CacheStates)
	debug.GET("/spans", h.RecentSpans)
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Proxy Launcher Engine",
		"version": Version,
	})
}

// Health reports the engine's moving parts
func (h *Handlers) Health(c *gin.Context) {
	_, settingsState := h.engine.Settings().Peek()

	body := gin.H{
		"status":   "healthy",
		"session":  id.Session(),
		"revision": h.engine.Pipeline().Revision(),
		"tray":     h.engine.Tray().State(),
		"settings": settingsState.Status,
	}
	if h.breaker != nil {
		body["bridge"] = gin.H{"breaker": h.breaker.BreakerState().String()}
	}
	if settingsState.Status == query.StatusError {
		body["status"] = "degraded"
	}
	c.JSON(http.StatusOK, body)
}

// track runs a host command under the API metrics
func (h *Handlers) track(ctx context.Context, op string, fn func(context.Context) error) error {
	done := h.metrics.Track(op)
	err := fn(ctx)
	done(err)
	return err
}
