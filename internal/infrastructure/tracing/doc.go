/*
Package tracing provides lightweight in-process tracing.

# Overview

Spans are created around API requests, mutation pipeline operations and
bridge calls. Finished spans are submitted to a buffered collector that
logs them and keeps a bounded window of recent spans for the debug API.

# Usage

	tracer := tracing.New("launcher", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Do(ctx, "mutation.add_site", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("site", name)
		return save(ctx)
	})

# Trace Format

Trace context travels in the X-Trace-ID and X-Span-ID headers, both on the
local API and on requests to the host bridge.
*/
package tracing
