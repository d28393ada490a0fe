// Package config provides 12-factor configuration for the application manager.
//
// Configuration is loaded from environment variables with sensible defaults.
// Command-line flags override individual values.
//
// Configuration Sections:
//   - Launcher: scheme prefix and application root directory
//   - Startup: path of the initial-apps / args-for document
//   - Server: HTTP introspection server
//   - Control: gRPC command feed
//   - Logging: level, format and optional rotating file
//   - RateLimit: limits applied to the control surfaces
//   - Spawn: circuit breaker around process creation
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	resolver := launcher.NewResolver(cfg.Launcher.Scheme, cfg.Launcher.Root)
//
// Environment Variables:
//   - APP_SCHEME, APP_ROOT, APPMGR_CONFIG
//   - HOST, PORT, HTTP_ENABLED
//   - CONTROL_GRPC_ADDR, CONTROL_GRPC_ENABLED
//   - LOG_LEVEL, LOG_DEV, LOG_FILE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SPAWN_MAX_FAILURES, SPAWN_COOLDOWN
package config
