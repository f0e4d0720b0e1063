// Package logging provides a simple leveled logging interface for the
// photo ingestion pipeline.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information, including full API request
//     and response diagnostics
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// Loggers are injected into components; Nop() is the default for callers
// that do not care about logs. The level of the standard logger is
// configured via the LOG_LEVEL and DEBUG environment variables.
package logging
