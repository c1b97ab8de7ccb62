// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components never build their own root logger. They receive a
// *zap.Logger (usually Logger.Component("cache") or similar) and fall
// back to zap.NewNop() when none is given.
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	defer logger.Sync()
//	cache := query.New(logger.Component("cache"), metrics)
package logging
