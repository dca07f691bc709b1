package finder

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type stubFrame string

func (f stubFrame) URL() string { return string(f) }

func framesOf(urls ...string) []Frame {
	frames := make([]Frame, len(urls))
	for i, u := range urls {
		frames[i] = stubFrame(u)
	}
	return frames
}

// fakePage returns successive entries of polls on each Frames call and
// repeats the last entry once they run out.
type fakePage struct {
	mu       sync.Mutex
	gotoErr  error
	closeErr error
	polls    [][]Frame
	calls    int
	visited  []string
	closed   int
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return p.gotoErr
}

func (p *fakePage) Frames() []Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.polls) == 0 {
		return nil
	}
	i := p.calls
	if i >= len(p.polls) {
		i = len(p.polls) - 1
	}
	p.calls++
	return p.polls[i]
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return p.closeErr
}

func (p *fakePage) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// MockSession is a testify mock of Session
type MockSession struct {
	mock.Mock
}

func (m *MockSession) NewPage(ctx context.Context) (Page, error) {
	args := m.Called(ctx)
	page, _ := args.Get(0).(Page)
	return page, args.Error(1)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}

// MockLauncher is a testify mock of Launcher
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context) (Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(Session)
	return session, args.Error(1)
}
