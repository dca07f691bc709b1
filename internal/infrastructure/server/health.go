package server

import (
	"time"

	api "github.com/GriffinCanCode/GameSourceFinder/internal/api/http"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameSourceFinder/internal/providers/browser"
	httpclient "github.com/GriffinCanCode/GameSourceFinder/internal/providers/http/client"
)

// healthReporter assembles the /health body from the running components.
// pool and fetch are nil when the engine has none.
type healthReporter struct {
	engine  string
	service *finder.Service
	pool    *browser.Pool
	fetch   *httpclient.Client
	metrics *monitoring.Metrics
}

func (r *healthReporter) Health() api.Health {
	httpSnap := r.metrics.Snapshot()
	h := api.Health{
		Status:   api.HealthOK,
		Engine:   r.engine,
		Uptime:   r.metrics.Uptime().Round(time.Second).String(),
		HTTP:     &httpSnap,
		Breakers: []resilience.Snapshot{r.service.Breaker().Snapshot()},
	}
	if r.fetch != nil {
		h.Breakers = append(h.Breakers, r.fetch.Breaker.Snapshot())
	}
	if r.pool != nil {
		stats := r.pool.Stats()
		h.Pool = &stats
	}

	for _, b := range h.Breakers {
		if b.State == resilience.StateOpen.String() {
			h.Status = api.HealthDegraded
		}
	}
	return h
}
