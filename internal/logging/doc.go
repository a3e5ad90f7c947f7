// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// All pool/provisioning warnings (unregistered-category fallback,
// unsupported warm reconfiguration) surface here; they are never
// returned to callers.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("window opened", zap.String("category", "settings"))
package logging
