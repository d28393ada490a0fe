// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Console output always goes to stderr so that a launched application's
// stdout stays its own. A rotating file sink (lumberjack) can be added
// with Config.File.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Named("manager")
//	log.Info("instance started", zap.String("name", "mojo:hello"))
package logging
