// Package logging provides structured logging for the door twin.
//
// This package wraps Go's standard log/slog package so every component
// logs the same way.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	LOG_LEVEL=info     # debug, info, warn, error
//	LOG_FORMAT=json    # json, text
//	LOG_OUTPUT=stdout  # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("listening", "address", cfg.HTTP.Address())
//	logger.Error("unexpected disconnect", "code", code)
//
// Never log private key material or InfluxDB tokens.
package logging
