/*
Package monitoring provides Prometheus metrics for the source finder.

Every Metrics value owns a private registry, served by Metrics.Handler at
GET /metrics. Tracked series:

  - HTTP requests by method, route and status
  - source lookups by engine and outcome, with duration and frame counts
  - browser launches, checked-out sessions, idle pool size, breaker state

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "playwright")
	// ... look up the source ...
	timer.Stop(monitoring.OutcomeFound, 3)
*/
package monitoring
