// Package ws streams query cache state to the webview over WebSocket.
//
// On connect the client receives a system message listing the cache keys,
// then the current state of each key, then every transition as it happens.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Resend the current state of every key
//   - invalidate: Mark a key stale and refetch it
//
// Message Types (Server → Client):
//   - system: Connected
//   - state: A key changed (loading, error, success)
//   - pong: Reply to ping
//   - error: Bad client message
//
// Example Usage:
//
//	handler := ws.NewHandler(eng.Cache(), logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
