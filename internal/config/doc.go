// Package config provides 12-factor configuration for the window
// service.
//
// Configuration is loaded from environment variables with sensible
// defaults.
//
// Sections:
//   - Server: debug HTTP listener (host, port, enabled)
//   - Pool: hot-pool debounce and construction rate limits
//   - Shell: dev mode, manifest directory, quit policy, auth token key
//   - Logging: level and output format
//
// Example:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
