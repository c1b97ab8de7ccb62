/*
Package resilience provides the circuit breaker guarding the host bridge.

# Overview

When the host process is down, every bridge command would otherwise wait
for its full timeout. The breaker fails them fast instead, and the query
cache's bounded retry turns that into an error state for subscribers.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Concurrent request handling
- State change callbacks for monitoring
- Error classification (IsSuccessful) so host-side rejections don't trip it
- Injectable clock for deterministic tests

# Usage

	// Create a circuit breaker
	breaker := resilience.New("service", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state change", zap.String("name", name), zap.Stringer("to", to))
		},
	})

	// Execute request through breaker, keeping the result type
	doc, err := resilience.Call(breaker, func() (*settings.AppSettings, error) {
		return host.LoadSettings(ctx)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
