package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/GameSourceFinder/internal/api/http"
	"github.com/GriffinCanCode/GameSourceFinder/internal/api/middleware"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/stats"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/GameSourceFinder/internal/providers/browser"
	httpclient "github.com/GriffinCanCode/GameSourceFinder/internal/providers/http/client"
	"github.com/GriffinCanCode/GameSourceFinder/internal/providers/static"
)

// readHeaderTimeout bounds slow clients; lookups themselves may take as long
// as the navigation timeout plus the frame wait.
const readHeaderTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	handler http.Handler
	http    *http.Server
	service *finder.Service
	pool    *browser.Pool
	stats   *stats.Manager
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config

	closeOnce sync.Once
	closeErr  error
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing Game Source Finder",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("engine", cfg.Browser.Engine),
		zap.Int("pool_size", cfg.Browser.PoolSize),
	)
	if cfg.Server.SecretGenerated {
		logger.Warn("SECRET_KEY not set, using a random key for this process")
	}

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("game-source-finder", logger)
	lookupStats := stats.NewManager()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	launcher := eng.launcher

	var pool *browser.Pool
	if cfg.Browser.PoolSize > 0 {
		pool = browser.NewPool(launcher, cfg.Browser.PoolSize, metrics, logger)
		launcher = pool
		logger.Info("Browser pool enabled", zap.Int("size", cfg.Browser.PoolSize))
	}

	service := finder.NewService(launcher, eng.wait, logger,
		finder.WithEngine(cfg.Browser.Engine),
		finder.WithMetrics(metrics),
		finder.WithStats(lookupStats),
		finder.WithTracer(tracer),
	)

	pages, err := api.LoadPages()
	if err != nil {
		if pool != nil {
			_ = pool.Close()
		}
		tracer.Close()
		return nil, err
	}

	health := &healthReporter{
		engine:  cfg.Browser.Engine,
		service: service,
		pool:    pool,
		fetch:   eng.fetch,
		metrics: metrics,
	}
	handlers := api.NewHandlers(service, lookupStats, health, pages, logger)

	router, err := newRouter(cfg, logger, metrics, tracer, handlers)
	if err != nil {
		if pool != nil {
			_ = pool.Close()
		}
		tracer.Close()
		return nil, err
	}

	// Responses are gzipped for clients that accept it.
	handler := gzhttp.GzipHandler(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: handler,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		service: service,
		pool:    pool,
		stats:   lookupStats,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
	}, nil
}

// engine is the configured launcher with the wait options that suit it.
// fetch is set only for the static engine.
type engine struct {
	launcher finder.Launcher
	wait     finder.Options
	fetch    *httpclient.Client
}

func newEngine(cfg *config.Config, logger *logging.Logger) (engine, error) {
	eng := engine{
		wait: finder.Options{
			WaitTimeout:  cfg.Browser.WaitTimeout,
			PollInterval: cfg.Browser.PollInterval,
		},
	}

	browserOpts := browser.PlaywrightOptions{
		Headless:          cfg.Browser.Headless,
		Args:              cfg.Browser.Args,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Install:           cfg.Browser.Install,
	}

	switch cfg.Browser.Engine {
	case config.EnginePlaywright:
		launcher := browser.NewPlaywrightLauncher(browserOpts, logger)
		if cfg.Browser.Install {
			if err := launcher.Install(); err != nil {
				return eng, fmt.Errorf("install browser: %w", err)
			}
		}
		eng.launcher = launcher

	case config.EngineRod:
		eng.launcher = browser.NewRodLauncher(browserOpts, logger)

	case config.EngineStatic:
		eng.fetch = httpclient.NewClient(httpclient.Options{
			Timeout:      cfg.Fetch.Timeout,
			UserAgent:    cfg.Fetch.UserAgent,
			MaxBodyBytes: static.MaxHTMLSize,
		})
		eng.launcher = static.NewLauncher(eng.fetch, logger)
		// a fetched document never gains frames, so one scan is enough
		eng.wait.WaitTimeout = 0

	default:
		return eng, fmt.Errorf("unknown browser engine %q", cfg.Browser.Engine)
	}
	return eng, nil
}

func newRouter(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, tracer *tracing.Tracer, handlers *api.Handlers) (*gin.Engine, error) {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(handlers.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: float64(cfg.RateLimit.RequestsPerSecond),
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.NoRoute(handlers.NotFound)
	router.NoMethod(handlers.MethodNotAllowed)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)
	router.POST("/find_source", handlers.FindSource)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Service returns the lookup service
func (s *Server) Service() *finder.Service {
	return s.service
}

// Stats returns the lookup counters served at /stats
func (s *Server) Stats() *stats.Manager {
	return s.stats
}

// Metrics returns the registry-backed metrics served at /metrics
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run serves HTTP until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	addr := s.http.Addr
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight lookups
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

// Close releases pooled browsers and flushes spans and logs
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")

		if s.pool != nil {
			if err := s.pool.Close(); err != nil {
				s.logger.Error("Failed to close browser pool", zap.Error(err))
				s.closeErr = fmt.Errorf("failed to close browser pool: %w", err)
			}
		}
		s.tracer.Close()

		// Sync logger before exit
		_ = s.logger.Sync()
	})
	return s.closeErr
}
