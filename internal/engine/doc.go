// Package engine is the service object behind the launcher UI.
//
// It owns one query cache (browsers, settings, settings-path keys), the
// mutation pipeline that writes the settings document and the tray sync
// that mirrors it. Start and Close bound the lifetime of all three.
package engine
