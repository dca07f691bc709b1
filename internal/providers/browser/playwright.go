package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/shared/id"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightOptions configures headless Chromium sessions
type PlaywrightOptions struct {
	Headless bool
	// Args are extra Chromium command line switches
	Args []string
	// NavigationTimeout bounds each Goto
	NavigationTimeout time.Duration
	// Install downloads the driver and Chromium before the first launch
	Install bool
}

// DefaultPlaywrightOptions returns headless settings suited to containers
func DefaultPlaywrightOptions() PlaywrightOptions {
	return PlaywrightOptions{
		Headless:          true,
		Args:              []string{"--no-sandbox", "--disable-dev-shm-usage"},
		NavigationTimeout: 30 * time.Second,
	}
}

// PlaywrightLauncher starts one playwright driver and one Chromium per session
type PlaywrightLauncher struct {
	opts   PlaywrightOptions
	logger *logging.Logger

	installOnce sync.Once
	installErr  error
}

// NewPlaywrightLauncher creates a launcher
func NewPlaywrightLauncher(opts PlaywrightOptions, logger *logging.Logger) *PlaywrightLauncher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultPlaywrightOptions().NavigationTimeout
	}
	return &PlaywrightLauncher{
		opts:   opts,
		logger: logger.Named("playwright"),
	}
}

// Install downloads the driver and Chromium. It runs at most once per
// launcher and returns the first result on every call.
func (l *PlaywrightLauncher) Install() error {
	l.installOnce.Do(func() {
		l.logger.Info("installing playwright driver and chromium")
		err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  false,
		})
		if err != nil {
			l.installErr = fmt.Errorf("install playwright: %w", err)
		}
	})
	return l.installErr
}

// Launch starts playwright and a Chromium instance
func (l *PlaywrightLauncher) Launch(ctx context.Context) (finder.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.opts.Install {
		if err := l.Install(); err != nil {
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     l.opts.Args,
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			l.logger.Warn("failed to stop playwright after launch failure", zap.Error(stopErr))
		}
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	session := &playwrightSession{
		id:         id.NewSessionID(),
		pw:         pw,
		browser:    browser,
		navTimeout: l.opts.NavigationTimeout,
	}
	l.logger.Debug("browser session started",
		zap.String("session_id", session.id.String()),
		zap.String("version", browser.Version()),
	)
	return session, nil
}

type playwrightSession struct {
	id         id.SessionID
	pw         *playwright.Playwright
	browser    playwright.Browser
	navTimeout time.Duration
}

func (s *playwrightSession) NewPage(ctx context.Context) (finder.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &playwrightPage{page: page, navTimeout: s.navTimeout}, nil
}

// Connected reports whether Chromium is still reachable
func (s *playwrightSession) Connected() bool {
	return s.browser.IsConnected()
}

// Close shuts the browser down and then the driver; both errors are kept.
func (s *playwrightSession) Close() error {
	var errs []error
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	page       playwright.Page
	navTimeout time.Duration
}

// Goto waits for the load event, bounded by the navigation timeout and any
// earlier context deadline.
func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	timeout, err := navigationBudget(ctx, p.navTimeout)
	if err != nil {
		return err
	}

	_, err = p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Frames() []finder.Frame {
	frames := p.page.Frames()
	out := make([]finder.Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, f)
	}
	return out
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

// navigationBudget returns the smaller of limit and the time left on ctx.
func navigationBudget(ctx context.Context, limit time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < limit {
			if left <= 0 {
				return 0, context.DeadlineExceeded
			}
			return left, nil
		}
	}
	return limit, nil
}
