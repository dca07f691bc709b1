// Package middleware provides the gin middleware stack of the HTTP API.
//
//   - CORS: any origin, GET/POST/OPTIONS
//   - RateLimit: per-IP token bucket with idle-client sweeping
//   - BodyLimit: 413 for bodies above the configured maximum
//   - RequestLogger: one zap line per request, correlated by trace_id
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
