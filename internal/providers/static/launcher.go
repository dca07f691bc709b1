package static

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/finder"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/providers/http/client"
	"go.uber.org/zap"
)

// Launcher hands out sessions that fetch pages over plain HTTP. Sessions
// share one client, so launching is free and closing is a no-op.
type Launcher struct {
	client *client.Client
	logger *logging.Logger
}

// NewLauncher creates a static launcher over c
func NewLauncher(c *client.Client, logger *logging.Logger) *Launcher {
	return &Launcher{client: c, logger: logger.Named("static")}
}

// Launch returns a new session
func (l *Launcher) Launch(ctx context.Context) (finder.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{launcher: l}, nil
}

type session struct {
	launcher *Launcher
}

func (s *session) NewPage(ctx context.Context) (finder.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &page{launcher: s.launcher}, nil
}

func (s *session) Close() error { return nil }

// frame is a document URL
type frame string

func (f frame) URL() string { return string(f) }

// page holds the frames of the last document it fetched
type page struct {
	launcher *Launcher

	mu     sync.Mutex
	frames []finder.Frame
}

// Goto fetches rawURL and records the final document URL followed by
// every embedded frame source.
func (p *page) Goto(ctx context.Context, rawURL string) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", target.Scheme)
	}

	resp, err := p.launcher.client.Get(ctx, target.String())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	final, err := url.Parse(resp.URL)
	if err != nil {
		final = target
	}

	// Non-markup responses have no embedded frames, only the document itself.
	var sources []string
	if IsHTML(resp.Body, resp.ContentType) {
		doc, err := ParseDocument(resp.Body, resp.ContentType)
		if err != nil {
			return err
		}
		sources = FrameSources(doc, final)
	}

	frames := make([]finder.Frame, 0, len(sources)+1)
	frames = append(frames, frame(final.String()))
	for _, src := range sources {
		frames = append(frames, frame(src))
	}

	p.launcher.logger.Debug("page fetched",
		zap.String("url", final.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("frames", len(frames)),
	)

	p.mu.Lock()
	p.frames = frames
	p.mu.Unlock()
	return nil
}

func (p *page) Frames() []finder.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]finder.Frame, len(p.frames))
	copy(out, p.frames)
	return out
}

func (p *page) Close() error {
	p.mu.Lock()
	p.frames = nil
	p.mu.Unlock()
	return nil
}
