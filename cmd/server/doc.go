// Package main is the entry point for the Game Source Finder server.
//
// The server accepts a game page URL, opens it in a headless browser and
// returns the first frame URL hosted on cloud.onlinegames.io.
//
// The server provides:
//   - POST /find_source lookups
//   - A landing page with lookup counters
//   - Health, stats and Prometheus endpoints
//   - Optional per-IP rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Headless Chromium (default)
//	./server -host 0.0.0.0 -port 8123
//
//	# Chromium over the DevTools protocol
//	./server -engine rod
//
//	# Plain HTTP fetch, no browser
//	./server -engine static
//
//	# Development mode (colored logs, debug level)
//	LOG_LEVEL=debug ./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
