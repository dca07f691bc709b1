package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Launch after Close
var ErrPoolClosed = fmt.Errorf("browser pool is closed: %w", finder.ErrLauncherClosed)

// connectivity is implemented by sessions that can tell when their browser died
type connectivity interface {
	Connected() bool
}

// Pool hands out at most size sessions at a time, created lazily by an
// underlying launcher and reused after check-in. Pool is a finder.Launcher.
type Pool struct {
	launcher finder.Launcher
	size     int
	metrics  *monitoring.Metrics
	logger   *logging.Logger

	idle  chan finder.Session
	slots chan struct{}
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// PoolStats describes pool occupancy
type PoolStats struct {
	Size   int  `json:"size"`
	Idle   int  `json:"idle"`
	InUse  int  `json:"in_use"`
	Closed bool `json:"closed"`
}

// NewPool creates a pool of up to size sessions. metrics may be nil.
func NewPool(launcher finder.Launcher, size int, metrics *monitoring.Metrics, logger *logging.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		launcher: launcher,
		size:     size,
		metrics:  metrics,
		logger:   logger.Named("pool"),
		idle:     make(chan finder.Session, size),
		slots:    make(chan struct{}, size),
		done:     make(chan struct{}),
	}
}

// Launch checks a session out, waiting for a free slot until ctx ends.
// Closing the returned session checks it back in.
func (p *Pool) Launch(ctx context.Context) (finder.Session, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}

	if p.isClosed() {
		<-p.slots
		return nil, ErrPoolClosed
	}

	for {
		s, ok := p.takeIdle()
		if !ok {
			break
		}
		if healthy(s) {
			return &pooledSession{Session: s, pool: p}, nil
		}
		p.logger.Info("discarding disconnected browser session")
		p.closeSession(s)
	}

	s, err := p.launcher.Launch(ctx)
	if err != nil {
		<-p.slots
		return nil, err
	}
	return &pooledSession{Session: s, pool: p}, nil
}

// checkin returns s to the idle set, or closes it when the pool is shut
// or the browser has died. The slot is always released.
func (p *Pool) checkin(s finder.Session) error {
	defer func() { <-p.slots }()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || !healthy(s) {
		return s.Close()
	}

	select {
	case p.idle <- s:
		p.reportIdle()
		return nil
	default:
		return s.Close()
	}
}

// Close shuts down idle sessions and rejects further checkouts. Sessions
// still checked out are closed when they are returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	var errs []error
	for {
		s, ok := p.takeIdle()
		if !ok {
			break
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close pooled sessions: %w", err)
	}
	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PoolStats{
		Size:   p.size,
		Idle:   len(p.idle),
		InUse:  len(p.slots),
		Closed: p.closed,
	}
}

func (p *Pool) takeIdle() (finder.Session, bool) {
	select {
	case s := <-p.idle:
		p.reportIdle()
		return s, true
	default:
		return nil, false
	}
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Pool) closeSession(s finder.Session) {
	if err := s.Close(); err != nil {
		p.logger.Warn("failed to close browser session", zap.Error(err))
	}
}

func (p *Pool) reportIdle() {
	if p.metrics != nil {
		p.metrics.SetPoolIdle(len(p.idle))
	}
}

func healthy(s finder.Session) bool {
	if c, ok := s.(connectivity); ok {
		return c.Connected()
	}
	return true
}

// pooledSession checks its session back in on Close instead of shutting it down
type pooledSession struct {
	finder.Session
	pool *Pool
	once sync.Once
	err  error
}

func (s *pooledSession) Close() error {
	s.once.Do(func() {
		s.err = s.pool.checkin(s.Session)
	})
	return s.err
}
