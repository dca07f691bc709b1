package finder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Options controls how long a lookup waits for matching frames.
type Options struct {
	// WaitTimeout bounds the wait after navigation. Zero scans exactly once.
	WaitTimeout time.Duration
	// PollInterval is the pause between frame scans.
	PollInterval time.Duration
}

// DefaultOptions waits up to three seconds, scanning four times a second.
func DefaultOptions() Options {
	return Options{
		WaitTimeout:  3 * time.Second,
		PollInterval: 250 * time.Millisecond,
	}
}

// Finder owns one browser session and looks up game sources with it.
// Lookups on one Finder are serialized.
type Finder struct {
	session Session
	opts    Options
	logger  *logging.Logger

	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// New creates a finder that takes ownership of session.
func New(session Session, opts Options, logger *logging.Logger) *Finder {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.WaitTimeout < 0 {
		opts.WaitTimeout = 0
	}
	return &Finder{
		session: session,
		opts:    opts,
		logger:  logger.Named("finder"),
	}
}

// FindSource returns the URL of the first frame on url that is a game
// source, or ErrSourceNotFound.
func (f *Finder) FindSource(ctx context.Context, url string) (string, error) {
	res, err := f.Lookup(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Source, nil
}

// Lookup is FindSource with scan statistics.
func (f *Finder) Lookup(ctx context.Context, url string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return Result{}, ErrFinderClosed
	}

	// The page is created before anything else can fail so the deferred
	// close always has a handle to release.
	page, err := f.session.NewPage(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			f.logger.Warn("failed to close page", zap.String("url", url), zap.Error(cerr))
		}
	}()

	if err := page.Goto(ctx, url); err != nil {
		return Result{}, fmt.Errorf("navigate to %s: %w", url, err)
	}

	return f.poll(ctx, page)
}

// poll scans frames right away and then every PollInterval until a match
// appears or WaitTimeout elapses.
func (f *Finder) poll(ctx context.Context, page Page) (Result, error) {
	deadline := time.Now().Add(f.opts.WaitTimeout)
	var res Result

	for {
		source, inspected := FirstMatch(page.Frames())
		res.Polls++
		res.FramesScanned += inspected
		if source != "" {
			res.Source = source
			return res, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			f.logger.Debug("no matching frame",
				zap.Int("polls", res.Polls),
				zap.Int("frames_scanned", res.FramesScanned),
			)
			return res, ErrSourceNotFound
		}

		timer := time.NewTimer(min(f.opts.PollInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		case <-timer.C:
		}
	}
}

// Close releases the session. It is safe to call more than once; every
// call returns the result of the first.
func (f *Finder) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()

		f.closeErr = f.session.Close()
	})
	return f.closeErr
}
