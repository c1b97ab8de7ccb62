/*
Package bridge is the engine's only way to reach the host process.

Host is the raw command set; every call may fail. Client wraps a Host and
applies the failure policy: best-effort reads (browser detection, settings
path, file pickers, autostart status) are swallowed into a default value
with a warning, toggle window is fire-and-forget, and everything else is
returned to the caller wrapped with the command name.

Implementations:
  - bridge/rpc: HTTP/JSON transport to a running host
  - bridge/memory: in-process host double for tests and offline runs
*/
package bridge
