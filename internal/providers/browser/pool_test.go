package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id        int
	connected atomic.Bool
	closes    atomic.Int32
}

func (s *fakeSession) NewPage(context.Context) (finder.Page, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *fakeSession) Connected() bool { return s.connected.Load() }

type countingLauncher struct {
	mu       sync.Mutex
	sessions []*fakeSession
	err      error
}

func (l *countingLauncher) Launch(context.Context) (finder.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	s := &fakeSession{id: len(l.sessions) + 1}
	s.connected.Store(true)
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *countingLauncher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

func unwrap(t *testing.T, s finder.Session) *fakeSession {
	t.Helper()
	ps, ok := s.(*pooledSession)
	require.True(t, ok)
	fs, ok := ps.Session.(*fakeSession)
	require.True(t, ok)
	return fs
}

func TestPoolReusesSessions(t *testing.T) {
	launcher := &countingLauncher{}
	pool := NewPool(launcher, 2, nil, logging.NewNop())
	defer pool.Close()

	s1, err := pool.Launch(context.Background())
	require.NoError(t, err)
	first := unwrap(t, s1)
	require.NoError(t, s1.Close())

	s2, err := pool.Launch(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, unwrap(t, s2))
	assert.Equal(t, 1, launcher.Launched())
	assert.Zero(t, first.closes.Load(), "checked-in session must stay open")
}

func TestPoolCloseOfCheckedOutSessionIsIdempotent(t *testing.T) {
	pool := NewPool(&countingLauncher{}, 1, nil, logging.NewNop())
	defer pool.Close()

	s, err := pool.Launch(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	stats := pool.Stats()
	assert.Equal(t, 1, stats.Idle)
	assert.Equal(t, 0, stats.InUse)
}

func TestPoolBlocksWhenExhausted(t *testing.T) {
	pool := NewPool(&countingLauncher{}, 1, nil, logging.NewNop())
	defer pool.Close()

	held, err := pool.Launch(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Launch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := make(chan finder.Session, 1)
	go func() {
		s, err := pool.Launch(context.Background())
		if err == nil {
			got <- s
		}
	}()

	require.NoError(t, held.Close())

	select {
	case s := <-got:
		assert.NoError(t, s.Close())
	case <-time.After(2 * time.Second):
		t.Fatal("waiting checkout was not served after check-in")
	}
}

func TestPoolDiscardsDisconnectedSessions(t *testing.T) {
	launcher := &countingLauncher{}
	pool := NewPool(launcher, 1, nil, logging.NewNop())
	defer pool.Close()

	s1, err := pool.Launch(context.Background())
	require.NoError(t, err)
	first := unwrap(t, s1)
	first.connected.Store(false)
	require.NoError(t, s1.Close())
	assert.Equal(t, int32(1), first.closes.Load())

	s2, err := pool.Launch(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, unwrap(t, s2))
	assert.Equal(t, 2, launcher.Launched())
}

func TestPoolDiscardsSessionsThatDiedWhileIdle(t *testing.T) {
	launcher := &countingLauncher{}
	pool := NewPool(launcher, 1, nil, logging.NewNop())
	defer pool.Close()

	s1, err := pool.Launch(context.Background())
	require.NoError(t, err)
	first := unwrap(t, s1)
	require.NoError(t, s1.Close())

	first.connected.Store(false)

	s2, err := pool.Launch(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, unwrap(t, s2))
	assert.Equal(t, int32(1), first.closes.Load())
}

func TestPoolLaunchErrorReleasesSlot(t *testing.T) {
	launcher := &countingLauncher{err: errors.New("no chromium")}
	pool := NewPool(launcher, 1, nil, logging.NewNop())
	defer pool.Close()

	for i := 0; i < 3; i++ {
		_, err := pool.Launch(context.Background())
		assert.EqualError(t, err, "no chromium")
	}
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestPoolClose(t *testing.T) {
	launcher := &countingLauncher{}
	metrics := monitoring.NewMetrics()
	pool := NewPool(launcher, 2, metrics, logging.NewNop())

	idle, err := pool.Launch(context.Background())
	require.NoError(t, err)
	busy, err := pool.Launch(context.Background())
	require.NoError(t, err)
	require.NoError(t, idle.Close())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PoolIdle))

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	assert.Equal(t, int32(1), unwrap(t, idle).closes.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PoolIdle))

	_, err = pool.Launch(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, err, finder.ErrLauncherClosed)

	// returned after close: shut down rather than pooled
	require.NoError(t, busy.Close())
	assert.Equal(t, int32(1), unwrap(t, busy).closes.Load())
	assert.True(t, pool.Stats().Closed)
}

func TestNavigationBudget(t *testing.T) {
	budget, err := navigationBudget(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, budget)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	budget, err = navigationBudget(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, budget, time.Second)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = navigationBudget(cancelled, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPlaywrightOptions(t *testing.T) {
	opts := DefaultPlaywrightOptions()
	assert.True(t, opts.Headless)
	assert.Contains(t, opts.Args, "--no-sandbox")

	l := NewPlaywrightLauncher(PlaywrightOptions{}, logging.NewNop())
	assert.Equal(t, 30*time.Second, l.opts.NavigationTimeout)
}

func TestWaitingForBusyPoolKeepsLaunchBreakerClosed(t *testing.T) {
	const pageURL = "https://www.onlinegames.io/bus-parking/"

	launcher := &countingLauncher{}
	pool := NewPool(launcher, 1, nil, logging.NewNop())
	defer pool.Close()
	svc := finder.NewService(pool, finder.Options{}, logging.NewNop())

	held, err := pool.Launch(context.Background())
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := svc.Find(ctx, pageURL)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	require.NoError(t, held.Close())
	assert.Equal(t, resilience.StateClosed, svc.Breaker().State())

	_, err = svc.Find(context.Background(), pageURL)
	assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, launcher.Launched())
	assert.Equal(t, PoolStats{Size: 1, Idle: 1}, pool.Stats())
}
