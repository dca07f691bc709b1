// Package client provides the outbound HTTP client used by the static
// browser engine.
//
// Built on go-resty/resty with:
//   - a token bucket limiter (golang.org/x/time/rate) shared by all lookups
//   - a circuit breaker counting transport errors and 5xx responses
//   - trace header propagation (X-Trace-ID / X-Span-ID)
//   - no retries
//
// Example Usage:
//
//	c := client.NewClient(client.Options{Timeout: 15 * time.Second, UserAgent: ua})
//	resp, err := c.Get(ctx, "https://example.com/game")
package client
