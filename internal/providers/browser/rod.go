package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/shared/id"
)

// RodLauncher starts one Chromium per session over the DevTools protocol.
// It takes the same options as PlaywrightLauncher; Install is ignored
// because rod downloads a browser on first launch when none is found.
type RodLauncher struct {
	opts   PlaywrightOptions
	logger *logging.Logger
}

// NewRodLauncher creates a rod launcher
func NewRodLauncher(opts PlaywrightOptions, logger *logging.Logger) *RodLauncher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultPlaywrightOptions().NavigationTimeout
	}
	return &RodLauncher{
		opts:   opts,
		logger: logger.Named("rod"),
	}
}

// Launch starts Chromium and connects to it
func (l *RodLauncher) Launch(ctx context.Context) (finder.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chrome := launcher.New().Context(ctx).Headless(l.opts.Headless)
	for _, arg := range l.opts.Args {
		name, values := parseSwitch(arg)
		chrome = chrome.Set(name, values...)
	}

	controlURL, err := chrome.Launch()
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		chrome.Kill()
		chrome.Cleanup()
		return nil, fmt.Errorf("could not connect to chromium: %w", err)
	}

	session := &rodSession{
		id:         id.NewSessionID(),
		launcher:   chrome,
		browser:    browser,
		navTimeout: l.opts.NavigationTimeout,
	}
	l.logger.Debug("browser session started",
		zap.String("session_id", session.id.String()),
		zap.String("control_url", controlURL),
	)
	return session, nil
}

type rodSession struct {
	id         id.SessionID
	launcher   *launcher.Launcher
	browser    *rod.Browser
	navTimeout time.Duration
}

func (s *rodSession) NewPage(ctx context.Context) (finder.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &rodPage{page: page, navTimeout: s.navTimeout}, nil
}

// Connected reports whether Chromium still answers protocol calls
func (s *rodSession) Connected() bool {
	_, err := s.browser.Version()
	return err == nil
}

// Close shuts the browser down and removes its profile directory. The
// process is killed only when Chromium does not accept the close command.
func (s *rodSession) Close() error {
	return closeChromium(s.browser.Close, s.launcher.Kill, s.launcher.Cleanup)
}

// closeChromium runs shutdown, falls back to kill when it fails, then waits
// for the process with cleanup.
func closeChromium(shutdown func() error, kill, cleanup func()) error {
	var err error
	if err = shutdown(); err != nil {
		err = fmt.Errorf("close browser: %w", err)
		kill()
	}
	cleanup()
	return err
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

// Goto navigates and waits for the load event within the navigation
// timeout and any earlier context deadline.
func (p *rodPage) Goto(ctx context.Context, url string) error {
	timeout, err := navigationBudget(ctx, p.navTimeout)
	if err != nil {
		return err
	}

	page := p.page.Context(ctx).Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

// Frames walks the frame tree depth first, main frame first
func (p *rodPage) Frames() []finder.Frame {
	tree, err := proto.PageGetFrameTree{}.Call(p.page)
	if err != nil || tree == nil {
		return nil
	}
	return flattenFrameTree(tree.FrameTree, nil)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

// parseSwitch splits a Chromium switch such as "--lang=en" into the flag
// name and its values.
func parseSwitch(arg string) (flags.Flag, []string) {
	name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	if !hasValue {
		return flags.Flag(name), nil
	}
	return flags.Flag(name), []string{value}
}

// rodFrame is a frame URL captured from the frame tree
type rodFrame string

func (f rodFrame) URL() string { return string(f) }

func flattenFrameTree(node *proto.PageFrameTree, out []finder.Frame) []finder.Frame {
	if node == nil {
		return out
	}
	if node.Frame != nil {
		out = append(out, rodFrame(node.Frame.URL))
	}
	for _, child := range node.ChildFrames {
		out = flattenFrameTree(child, out)
	}
	return out
}
