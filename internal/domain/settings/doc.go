// Package settings defines the configuration document shared with the host
// process: browsers, proxy profiles, sites and the AppSettings aggregate.
//
// The document is always read and written whole. Field names are
// snake_case on every wire (JSON, YAML, TOML) and must round-trip exactly.
//
// Referential Policy:
//   - SiteConfig.BrowserID and SiteConfig.ProxyID are soft references
//   - They are never validated at write time
//   - Deleting a browser or proxy never cascades and is never blocked
//   - Lookup resolves dangling ids to "Unknown Browser" / "Unknown Proxy"
//
// Proxy Records:
//
// ProxyConfig is stored flat. Endpoint() exposes it as a tagged union
// (HostPort for http/socks5, PACScript for pac) and NewProxyConfig flattens
// it back, zeroing host/port for pac and dropping url otherwise.
//
// Example Usage:
//
//	doc := settings.Default()
//	next := doc.Clone()
//	next.Proxies = append(next.Proxies, settings.NewProxyConfig(id, "Office",
//	    settings.HostPort{Scheme: settings.ProxyHTTP, Host: "10.0.0.1", Port: 3128}))
//	label := settings.NewLookup(next).BrowserName("chrome")
package settings
