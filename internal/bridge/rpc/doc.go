/*
Package rpc is the HTTP transport for bridge.Host.

Every command is POST {base}/invoke/{command} with a JSON object of
snake_case arguments (site_id, proxy_id, settings, default_filename,
filters, file_path, enabled). The host answers with an envelope:

	{"ok": true,  "data": <result or null>}
	{"ok": false, "error": "Failed to save settings: ..."}

A host-side error becomes *bridge.HostError. Connection failures count
against a circuit breaker; once it opens, commands fail fast with
ErrHostUnavailable until the host answers again. There is no retry here.
*/
package rpc
