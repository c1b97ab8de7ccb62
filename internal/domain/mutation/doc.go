// Package mutation is the write path for the settings document.
//
// Every change is a full-document replace: read the current document,
// clone it, splice one collection, save the whole thing through the
// bridge, then invalidate the settings cache key so every reader refetches.
// Operations run one at a time under a single lock, so two rapid adds
// both land. Callers holding an older Snapshot can use Replace, which
// fails with ErrConflict instead of overwriting a newer save.
package mutation
