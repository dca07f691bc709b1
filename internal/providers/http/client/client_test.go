package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(Options{Timeout: 5 * time.Second, UserAgent: "test-agent"})
}

func TestGet(t *testing.T) {
	var gotUA, gotTrace string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotTrace = r.Header.Get(tracing.HeaderTraceID)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	ctx := tracing.WithTrace(context.Background(), "req_abc", "")
	resp, err := newTestClient().Get(ctx, srv.URL+"/game")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, srv.URL+"/game", resp.URL)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<html></html>", string(resp.Body))
	assert.Equal(t, "test-agent", gotUA)
	assert.Empty(t, gotTrace, "trace IDs stay inside this service")
}

func TestGetTruncatesLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64*1024)))
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 5 * time.Second, MaxBodyBytes: 1024})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 1024)
}

func TestCancelledRequestsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient()
	for i := 0; i < 12; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := c.Get(ctx, srv.URL)
		cancel()
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateClosed, c.Breaker.State())
}

func TestGetFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := newTestClient().Get(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", resp.URL)
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient().Get(context.Background(), srv.URL)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
		})
	}
}

func TestGetDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient()
	for i := 0; i < 10; i++ {
		_, _ = c.Get(context.Background(), srv.URL)
	}
	require.Equal(t, resilience.StateOpen, c.Breaker.State())

	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient()
	for i := 0; i < 15; i++ {
		_, _ = c.Get(context.Background(), srv.URL)
	}
	assert.Equal(t, resilience.StateClosed, c.Breaker.State())
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient()
	c.SetRateLimit(0.001)
	// drain the single token
	require.True(t, c.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
