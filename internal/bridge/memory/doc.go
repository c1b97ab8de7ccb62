// Package memory provides an in-process bridge.Host.
//
// It backs offline runs of the launcher (BRIDGE_OFFLINE) and every
// engine-level test. Beyond the plain command set it supports seeding
// from JSON/YAML/TOML files, per-command failure injection (Fail, FailN),
// save hooks that can block to force interleavings, scripted file-picker
// results and a virtual file table for export/import.
package memory
