package http

import (
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
)

// ComponentAPI labels operations started from the local API
const ComponentAPI = "api"

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Track times an API-initiated host command. Call the returned function
// with the command's error.
func (hm *HandlerMetrics) Track(operation string) func(err error) {
	timer := monitoring.NewTimer(hm.metrics, ComponentAPI, operation)
	return func(err error) {
		if err != nil {
			timer.Stop(monitoring.StatusError)
			hm.metrics.RecordOperationError(ComponentAPI, operation, errorType(err))
			return
		}
		timer.Stop(monitoring.StatusSuccess)
	}
}
