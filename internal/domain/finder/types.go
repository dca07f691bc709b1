package finder

import (
	"context"
	"errors"
)

var (
	// ErrSourceNotFound means the page loaded but no frame matched.
	ErrSourceNotFound = errors.New("no source URL found")
	// ErrFinderClosed is returned by FindSource after Close.
	ErrFinderClosed = errors.New("finder is closed")
	// ErrLauncherClosed is wrapped by launchers that have been shut down.
	ErrLauncherClosed = errors.New("launcher is closed")
)

// Frame is one document in a page: the top document or an embedded one.
type Frame interface {
	URL() string
}

// Page is a browser tab scoped to a single lookup.
type Page interface {
	// Goto navigates and returns once the page's load event fired.
	Goto(ctx context.Context, url string) error
	// Frames lists the page's frames in enumeration order.
	Frames() []Frame
	Close() error
}

// Session is a running browser together with its automation engine.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Result describes a successful lookup.
type Result struct {
	Source string
	// FramesScanned counts frames inspected across all polls.
	FramesScanned int
	// Polls counts how many times the frame list was read.
	Polls int
}
