package finder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/stats"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/tracing"
	"go.uber.org/zap"
)

const launchBreakerName = "browser-launch"

// Service runs one lookup per call, each with its own Finder.
type Service struct {
	launcher Launcher
	engine   string
	opts     Options
	logger   *logging.Logger
	breaker  *resilience.Breaker
	metrics  *monitoring.Metrics
	stats    *stats.Manager
	tracer   *tracing.Tracer
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithEngine labels metrics and logs with the engine name
func WithEngine(name string) ServiceOption {
	return func(s *Service) { s.engine = name }
}

// WithMetrics records lookups and launches
func WithMetrics(m *monitoring.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithStats counts lookups for /stats
func WithStats(m *stats.Manager) ServiceOption {
	return func(s *Service) { s.stats = m }
}

// WithTracer opens spans for launch and scan
func WithTracer(t *tracing.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithBreaker replaces the default launch breaker
func WithBreaker(b *resilience.Breaker) ServiceOption {
	return func(s *Service) { s.breaker = b }
}

// NewService creates a lookup service over launcher
func NewService(launcher Launcher, opts Options, logger *logging.Logger, options ...ServiceOption) *Service {
	s := &Service{
		launcher: launcher,
		engine:   "browser",
		opts:     opts,
		logger:   logger.Named("service"),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.breaker == nil {
		s.breaker = resilience.New(launchBreakerName, resilience.Settings{
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsExcluded:    launchAbandoned,
			OnStateChange: s.onBreakerChange,
		})
	}
	if s.metrics != nil {
		s.metrics.SetBreakerState(s.breaker.Name(), int(s.breaker.State()))
	}

	return s
}

// Breaker exposes the launch breaker for /health
func (s *Service) Breaker() *resilience.Breaker {
	return s.breaker
}

// Find launches a session, looks up url and releases everything it
// acquired. No-match is reported as ErrSourceNotFound.
func (s *Service) Find(ctx context.Context, url string) (string, error) {
	timer := monitoring.NewTimer(s.metrics, s.engine)

	ctx, finish := s.span(ctx, "finder.find", url)

	res, err := s.find(ctx, url)
	outcome := classify(err)
	elapsed := timer.Stop(outcome, res.FramesScanned)
	finish(outcome, err)

	if s.stats != nil {
		s.stats.Record(err == nil)
	}

	fields := append([]zap.Field{
		zap.String("url", url),
		zap.String("engine", s.engine),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
		zap.Int("polls", res.Polls),
	}, tracing.Fields(ctx)...)

	switch outcome {
	case monitoring.OutcomeFound:
		s.logger.Info("source found", append(fields, zap.String("source", res.Source))...)
	case monitoring.OutcomeNotFound:
		s.logger.Info("no source found", fields...)
	default:
		s.logger.Error("lookup failed", append(fields, zap.Error(err))...)
	}

	if err != nil {
		return "", err
	}
	return res.Source, nil
}

func (s *Service) find(ctx context.Context, url string) (Result, error) {
	session, err := s.launch(ctx)
	if err != nil {
		return Result{}, err
	}
	if s.metrics != nil {
		s.metrics.IncSessionsActive()
		defer s.metrics.DecSessionsActive()
	}

	f := New(session, s.opts, s.logger)
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("failed to close browser session", zap.String("url", url), zap.Error(cerr))
		}
	}()

	ctx, finish := s.span(ctx, "finder.scan", url)
	res, err := f.Lookup(ctx, url)
	finish(classify(err), err)
	return res, err
}

func (s *Service) launch(ctx context.Context) (Session, error) {
	ctx, finish := s.span(ctx, "browser.launch", "")
	start := time.Now()

	session, err := resilience.Do(s.breaker, func() (Session, error) {
		return s.launcher.Launch(ctx)
	})

	status := monitoring.LaunchSuccess
	if err != nil {
		status = monitoring.LaunchFailure
	}
	if s.metrics != nil {
		s.metrics.RecordLaunch(status, time.Since(start))
	}
	finish(status, err)

	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return session, nil
}

// span starts a child span when a tracer is configured. The returned
// func finishes and submits it.
func (s *Service) span(ctx context.Context, name, url string) (context.Context, func(outcome string, err error)) {
	if s.tracer == nil {
		return ctx, func(string, error) {}
	}

	span, ctx := s.tracer.StartSpan(ctx, name)
	span.SetTag("engine", s.engine)
	if url != "" {
		span.SetTag("url", url)
	}

	return ctx, func(outcome string, err error) {
		span.SetTag("outcome", outcome)
		if err != nil && !errors.Is(err, ErrSourceNotFound) {
			span.SetError(err)
		}
		span.Finish()
		s.tracer.Submit(span)
	}
}

func (s *Service) onBreakerChange(name string, from, to resilience.State) {
	s.logger.Warn("circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if s.metrics != nil {
		s.metrics.SetBreakerState(name, int(to))
	}
}

// launchAbandoned reports launch errors caused by the caller or by shutdown.
// The launch breaker does not count them.
func launchAbandoned(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrLauncherClosed)
}

func classify(err error) string {
	switch {
	case err == nil:
		return monitoring.OutcomeFound
	case errors.Is(err, ErrSourceNotFound):
		return monitoring.OutcomeNotFound
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return monitoring.OutcomeRejected
	default:
		return monitoring.OutcomeError
	}
}
