package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge/rpc"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/mutation"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/tray"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/utils"
)

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	var invalid *forms.ValidationError
	var saveErr *mutation.SaveError
	var hostErr *bridge.HostError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, mutation.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, mutation.ErrNotFound), errors.Is(err, tray.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, tray.ErrNotReady), errors.Is(err, rpc.ErrHostUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &saveErr), errors.As(err, &hostErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorType(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusConflict:
		return monitoring.ErrorConflict
	case http.StatusNotFound:
		return monitoring.ErrorNotFound
	case http.StatusBadGateway:
		return monitoring.ErrorHost
	default:
		return monitoring.ErrorTransport
	}
}

// respondError writes {"error": ...}; validation failures add per-field messages
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var invalid *forms.ValidationError
	if errors.As(err, &invalid) {
		body["error"] = "validation failed"
		body["fields"] = invalid.Fields
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, body)
}

// bind decodes the JSON body, answering 400 on failure
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// idParam reads the :id path segment, answering 400 when it is malformed
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id: " + err.Error()})
		return "", false
	}
	return id, true
}
