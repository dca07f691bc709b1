// Package config provides 12-factor configuration management for the
// game source finder.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags on cmd/server can override the listen address and engine.
//
// Configuration Sections:
//   - Server: listen host/port, secret key, body limit, trusted proxies
//   - Browser: engine selection, headless mode, timeouts, session pool
//   - Fetch: HTTP client used by the static engine
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - HOST, PORT, SECRET_KEY, MAX_CONTENT_LENGTH, TRUSTED_PROXIES
//   - BROWSER_ENGINE, BROWSER_HEADLESS, BROWSER_INSTALL, BROWSER_NAV_TIMEOUT,
//     BROWSER_WAIT_TIMEOUT, BROWSER_POLL_INTERVAL, BROWSER_POOL_SIZE, BROWSER_ARGS
//   - FETCH_TIMEOUT, FETCH_USER_AGENT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
