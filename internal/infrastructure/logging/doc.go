// Package logging provides structured logging for the rgb7seg controller.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same default fields and level filtering.
//
// # Features
//
//   - JSON output for production (machine-parsable, shipped off-board)
//   - Coloured text output via tint for a serial console or journal view
//   - Default fields (service, version, device) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("sensor scan complete", "count", 3)
//	logger.Error("flash commit failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
