// Package config provides 12-factor configuration management for the
// orders demo service.
//
// Configuration is loaded from environment variables with sensible
// defaults. A YAML file can overlay the environment for local setups.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Trace: Span export pipeline (exporter choice, batching, collector)
//   - Downstream: Traced outbound dependency (URL, retries, breaker)
//   - Store: Order store settings
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - TRACE_EXPORTER, TRACE_COLLECTOR_ADDR, TRACE_BATCH, TRACE_ENV
//   - DOWNSTREAM_URL, DOWNSTREAM_RETRIES, DOWNSTREAM_BREAKER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
package config
