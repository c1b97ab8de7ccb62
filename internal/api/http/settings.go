package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// ReplaceRequest is a whole document based on a previously read revision
type ReplaceRequest struct {
	Revision uint64                `json:"revision"`
	Settings *settings.AppSettings `json:"settings" binding:"required"`
}

// PathRequest names a file for export or import. An empty path opens the
// host's file dialog instead.
type PathRequest struct {
	Path string `json:"path"`
}

// BrowserPathRequest sets a browser executable
type BrowserPathRequest struct {
	Path string `json:"path" binding:"required"`
}

// AutostartRequest toggles launch on login
type AutostartRequest struct {
	Enabled bool `json:"enabled"`
}

// ListBrowsers lists detected and saved browsers
func (h *Handlers) ListBrowsers(c *gin.Context) {
	rows, err := h.engine.BrowserRows(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"browsers": rows})
}

// SetBrowserPath persists an executable path for a browser
func (h *Handlers) SetBrowserPath(c *gin.Context) {
	browserID, ok := idParam(c)
	if !ok {
		return
	}
	var req BrowserPathRequest
	if !bind(c, &req) {
		return
	}
	browser, err := h.engine.Pipeline().SetBrowserPath(c.Request.Context(), browserID, req.Path)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, browser)
}

// BrowseBrowserPath lets the user pick the executable in a host dialog
func (h *Handlers) BrowseBrowserPath(c *gin.Context) {
	browserID, valid := idParam(c)
	if !valid {
		return
	}
	browser, ok, err := h.engine.Pipeline().BrowseBrowserPath(c.Request.Context(), browserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": false, "browser": browser})
}

// GetSettings returns the whole document with the revision to send back on replace
func (h *Handlers) GetSettings(c *gin.Context) {
	snap, err := h.engine.Pipeline().Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ReplaceSettings saves a whole document unless a newer save happened
func (h *Handlers) ReplaceSettings(c *gin.Context) {
	var req ReplaceRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.Pipeline().Replace(c.Request.Context(), req.Revision, req.Settings); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revision": h.engine.Pipeline().Revision()})
}

// SettingsPath reports where the host keeps the document
func (h *Handlers) SettingsPath(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"path": h.engine.SettingsPath(c.Request.Context())})
}

// ExportSettings writes the persisted document to a file
func (h *Handlers) ExportSettings(c *gin.Context) {
	var req PathRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	path := req.Path
	ok := true
	var err error
	if path == "" {
		path, ok, err = h.engine.Pipeline().ExportSettings(ctx)
	} else {
		err = h.engine.Pipeline().ExportSettingsTo(ctx, path)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": false, "path": path})
}

// ImportSettings replaces the document with a previously exported file
func (h *Handlers) ImportSettings(c *gin.Context) {
	var req PathRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var doc *settings.AppSettings
	ok := true
	var err error
	if req.Path == "" {
		doc, ok, err = h.engine.Pipeline().ImportSettings(ctx)
	} else {
		doc, err = h.engine.Pipeline().ImportSettingsFrom(ctx, req.Path)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": false, "settings": doc})
}

// GetPreferences prefills the settings page
func (h *Handlers) GetPreferences(c *gin.Context) {
	prefs, err := h.engine.Preferences(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences saves the settings page
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	var form forms.PreferencesForm
	if !bind(c, &form) {
		return
	}
	doc, err := h.engine.Pipeline().UpdatePreferences(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forms.PreferencesFormFrom(doc))
}

// GetAutostart reports whether the app launches on login
func (h *Handlers) GetAutostart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.engine.Client().AutostartStatus(c.Request.Context())})
}

// SetAutostart registers or unregisters launch on login
func (h *Handlers) SetAutostart(c *gin.Context) {
	var req AutostartRequest
	if !bind(c, &req) {
		return
	}
	err := h.track(c.Request.Context(), "set_autostart", func(ctx context.Context) error {
		return h.engine.Client().SetAutostart(ctx, req.Enabled)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled})
}

// ToggleWindow shows or hides the main window
func (h *Handlers) ToggleWindow(c *gin.Context) {
	h.engine.Tray().ClickIcon(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// Quit asks the host to exit
func (h *Handlers) Quit(c *gin.Context) {
	err := h.track(c.Request.Context(), "quit", h.engine.Client().Quit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
