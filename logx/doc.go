// Package logx provides leveled logging with environment variable configuration
// and console, CloudWatch and JSON output.
//
// Environment Variables:
//   - LOG_LEVEL: minimum log level (TRACE, DEBUG, INFO, WARN, ERROR, OFF)
//   - LOG_FORMAT: output format (console, cloudwatch, json)
//   - LOG_COLOR: colored console output (true/false, default: true)
//   - LOG_CALLER: caller information (true/false, default: true)
//
// Basic Usage:
//
//	logx.Info("loaded %d pages from %s", n, source)
//	logx.Warn("table %s skipped: %v", id, err)
//
// Child loggers share output and level but add a prefix segment:
//
//	log := logx.GetLogger().With("loader")
//	log.With("caption").Debug("waiting for slot")
//	// [2025-06-08 18:57:52] loader.caption [DEBUG] caption.go:88: waiting for slot
package logx
