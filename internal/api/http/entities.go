package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
)

// ListSites lists sites with browser and proxy labels resolved
func (h *Handlers) ListSites(c *gin.Context) {
	rows, err := h.engine.SiteRows(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": rows})
}

// CreateSite adds a site from the submitted dialog
func (h *Handlers) CreateSite(c *gin.Context) {
	var form forms.SiteForm
	if !bind(c, &form) {
		return
	}
	site, err := h.engine.Pipeline().AddSite(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

// UpdateSite replaces a site, keeping its id
func (h *Handlers) UpdateSite(c *gin.Context) {
	siteID, ok := idParam(c)
	if !ok {
		return
	}
	var form forms.SiteForm
	if !bind(c, &form) {
		return
	}
	site, err := h.engine.Pipeline().EditSite(c.Request.Context(), siteID, form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// DeleteSite removes a site
func (h *Handlers) DeleteSite(c *gin.Context) {
	siteID, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.engine.Pipeline().DeleteSite(c.Request.Context(), siteID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "site_id": siteID})
}

// LaunchSite opens a site in its browser
func (h *Handlers) LaunchSite(c *gin.Context) {
	siteID, ok := idParam(c)
	if !ok {
		return
	}
	err := h.track(c.Request.Context(), "launch_site", func(ctx context.Context) error {
		return h.engine.Client().LaunchSite(ctx, siteID)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "site_id": siteID})
}

// ListProxies lists the configured proxies
func (h *Handlers) ListProxies(c *gin.Context) {
	proxies, err := h.engine.Proxies(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proxies": proxies})
}

// CreateProxy adds a proxy from the submitted dialog
func (h *Handlers) CreateProxy(c *gin.Context) {
	var form forms.ProxyForm
	if !bind(c, &form) {
		return
	}
	proxy, err := h.engine.Pipeline().AddProxy(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proxy)
}

// UpdateProxy replaces a proxy, keeping its id
func (h *Handlers) UpdateProxy(c *gin.Context) {
	proxyID, ok := idParam(c)
	if !ok {
		return
	}
	var form forms.ProxyForm
	if !bind(c, &form) {
		return
	}
	proxy, err := h.engine.Pipeline().EditProxy(c.Request.Context(), proxyID, form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proxy)
}

// DeleteProxy removes a proxy. Sites using it are left alone.
func (h *Handlers) DeleteProxy(c *gin.Context) {
	proxyID, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.engine.Pipeline().DeleteProxy(c.Request.Context(), proxyID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proxy_id": proxyID})
}

// LaunchProxy opens the default launch URL through a proxy
func (h *Handlers) LaunchProxy(c *gin.Context) {
	proxyID, ok := idParam(c)
	if !ok {
		return
	}
	err := h.track(c.Request.Context(), "launch_proxy", func(ctx context.Context) error {
		return h.engine.Client().LaunchProxy(ctx, proxyID)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proxy_id": proxyID})
}

// SiteForm returns the add dialog defaults, or the edit dialog for :id
func (h *Handlers) SiteForm(c *gin.Context) {
	form, err := h.engine.SiteForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// ProxyForm returns the add dialog defaults, or the edit dialog for :id
func (h *Handlers) ProxyForm(c *gin.Context) {
	form, err := h.engine.ProxyForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}
