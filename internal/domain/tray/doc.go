// Package tray derives the system tray menu from the settings document.
//
// The menu is a projection of sites and proxies. Sync subscribes to the
// settings cache key and rebuilds the whole menu whenever that projection
// changes. Shell is the native surface; HeadlessShell holds the menu in
// memory when there is none.
package tray
