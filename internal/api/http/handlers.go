package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameSourceFinder/internal/api/middleware"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/stats"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/GameSourceFinder/internal/providers/browser"
)

// Error messages returned by the JSON endpoints.
const (
	msgMissingURL     = "Missing URL parameter"
	msgNotFound       = "No source URL found"
	msgInternal       = "Internal server error"
	msgEntityTooLarge = "Request entity too large"
)

// SourceFinder looks up the game source of a page
type SourceFinder interface {
	Find(ctx context.Context, url string) (string, error)
}

// StatsProvider reports lookup counters
type StatsProvider interface {
	Snapshot() stats.Snapshot
}

// Health statuses. A degraded service still answers but a breaker is open.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health is the body of GET /health
type Health struct {
	Status   string                      `json:"status"`
	Engine   string                      `json:"engine,omitempty"`
	Uptime   string                      `json:"uptime,omitempty"`
	HTTP     *monitoring.MetricsSnapshot `json:"http,omitempty"`
	Breakers []resilience.Snapshot       `json:"breakers,omitempty"`
	Pool     *browser.PoolStats          `json:"pool,omitempty"`
}

// HealthReporter describes the running service
type HealthReporter interface {
	Health() Health
}

// Handlers serves the HTTP API
type Handlers struct {
	finder SourceFinder
	stats  StatsProvider
	health HealthReporter
	pages  *Pages
	logger *logging.Logger
}

// FindSourceRequest is the body of POST /find_source. URL is a pointer so a
// missing key and a non-string value both fail the same check.
type FindSourceRequest struct {
	URL *string `json:"url"`
}

// FindSourceResponse is the success body of POST /find_source
type FindSourceResponse struct {
	Source string `json:"source"`
}

// NewHandlers creates handlers. stats and health may be nil.
func NewHandlers(f SourceFinder, s StatsProvider, health HealthReporter, pages *Pages, logger *logging.Logger) *Handlers {
	return &Handlers{
		finder: f,
		stats:  s,
		health: health,
		pages:  pages,
		logger: logger.Named("api"),
	}
}

// Root renders the landing page
func (h *Handlers) Root(c *gin.Context) {
	var snap stats.Snapshot
	if h.stats != nil {
		snap = h.stats.Snapshot()
	}
	if err := h.pages.Index(c, snap); err != nil {
		h.logger.Error("Failed to render landing page", append(tracing.Fields(c.Request.Context()), zap.Error(err))...)
		h.pages.Error(c, http.StatusInternalServerError)
	}
}

// Health reports liveness with breaker and pool state. It answers 200
// even when degraded.
func (h *Handlers) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, Health{Status: HealthOK})
		return
	}
	c.JSON(http.StatusOK, h.health.Health())
}

// Stats returns the lookup counters
func (h *Handlers) Stats(c *gin.Context) {
	var snap stats.Snapshot
	if h.stats != nil {
		snap = h.stats.Snapshot()
	}
	c.JSON(http.StatusOK, snap)
}

// FindSource looks up the game source of the submitted page URL
func (h *Handlers) FindSource(c *gin.Context) {
	var req FindSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgEntityTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingURL})
		return
	}

	if req.URL == nil || strings.TrimSpace(*req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingURL})
		return
	}

	ctx := c.Request.Context()
	source, err := h.finder.Find(ctx, *req.URL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, FindSourceResponse{Source: source})
	case errors.Is(err, finder.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	default:
		h.logger.Error("Source lookup failed", append(tracing.Fields(ctx),
			zap.String("url", *req.URL),
			zap.Error(err),
		)...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// NotFound renders the 404 page for unknown routes
func (h *Handlers) NotFound(c *gin.Context) {
	h.pages.Error(c, http.StatusNotFound)
}

// MethodNotAllowed renders the 405 page
func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	h.pages.Error(c, http.StatusMethodNotAllowed)
}

// Recovery turns a handler panic into the 500 page
func (h *Handlers) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		h.logger.Error("Handler panic",
			append(tracing.Fields(c.Request.Context()),
				zap.Any("panic", recovered),
				zap.String("path", c.Request.URL.Path),
			)...,
		)
		h.pages.Error(c, http.StatusInternalServerError)
		c.Abort()
	})
}
