// Package server wires the engine to its HTTP surface.
//
// Server Lifecycle:
//  1. Build the logger, metrics and tracer
//  2. Pick the host bridge (HTTP or in-memory)
//  3. Create the engine (cache, mutation pipeline, tray)
//  4. Mount middleware, REST handlers and the /stream WebSocket
//  5. Run: start the engine, then serve
//  6. Close: stop serving, close the engine, flush logs
package server
