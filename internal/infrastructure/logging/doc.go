// Package logging provides structured logging using uber/zap.
//
// There is no package-level logger: the server builds one *Logger from
// configuration and hands it to every component that logs.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("addr", "localhost:8123"))
//	logger.Named("finder").Error("navigation failed", zap.Error(err))
package logging
