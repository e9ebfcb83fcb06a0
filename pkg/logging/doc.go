// Package logging provides the structured logging system for the gateway,
// built on Go's standard slog package.
//
// # Log Levels
//   - **Debug**: detailed information for debugging and development
//   - **Info**: general informational messages about gateway operation
//   - **Warn**: warnings that indicate potential issues
//   - **Error**: failures and exceptional conditions
//
// # Structured Records
//
// Every record carries a timestamp, a level, a component identifier, and an
// event message. Request-path records additionally use a fixed set of
// contextual keys: requestId, upstream, url, status, durationMs, attempt,
// error. Use ForRequest to obtain a logger pre-bound to a correlation id.
//
// # Formats
//
// Two emission formats are supported, selected at initialization:
//   - **machine**: one JSON record per line with a stable schema
//   - **human**: aligned columns for interactive reading
//
// # Redaction
//
// Attribute values whose keys look credential-bearing (api_key, token,
// secret, password, ...) are replaced with a placeholder before emission.
// String values that match well-known secret shapes (bearer tokens, JWTs,
// prefixed API keys) are masked as well, including inside messages.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatMachine, os.Stderr)
//
//	logging.Info("bootstrap", "gateway starting on port %d", port)
//	logging.Error("upstream", err, "health probe failed")
//
//	log := logging.ForRequest(requestID)
//	log.Info("request completed", "status", 200, "durationMs", 42)
//
// The package is safe for concurrent use from multiple goroutines.
package logging
