package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
)

// TrayStatus returns the tray lifecycle state and the installed menu
func (h *Handlers) TrayStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Tray().Status())
}

// ClickTrayIcon simulates a click on the tray icon
func (h *Handlers) ClickTrayIcon(c *gin.Context) {
	h.engine.Tray().ClickIcon(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// ActivateTrayItem runs the action of an installed menu item
func (h *Handlers) ActivateTrayItem(c *gin.Context) {
	itemID := c.Param("id")
	if err := h.engine.Tray().Activate(c.Request.Context(), itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item_id": itemID})
}

// CacheStates returns a snapshot of every cache key without fetching
func (h *Handlers) CacheStates(c *gin.Context) {
	cache := h.engine.Cache()
	states := make([]query.State, 0, 3)
	for _, key := range cache.Keys() {
		state := cache.Peek(key)
		state.Data = nil
		states = append(states, state)
	}
	c.JSON(http.StatusOK, gin.H{"keys": states})
}

// RecentSpans returns the last finished spans
func (h *Handlers) RecentSpans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"spans": h.engine.Tracer().Recent()})
}

// MetricsJSON returns the counters behind the stats view
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Metrics().Snapshot())
}
