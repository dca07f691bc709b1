package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/GriffinCanCode/GameSourceFinder/internal/api/http"
	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/stats"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
)

const gameSource = "https://cloud.onlinegames.io/games/2023/unity/bus-parking/index-og.html"

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/bus-parking/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body>
			<iframe src="/ads/slot.html"></iframe>
			<iframe src="`+gameSource+`"></iframe>
		</body></html>`)
	})
	mux.HandleFunc("/about/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><p>no games here</p></body></html>`)
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStaticServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Browser.Engine = config.EngineStatic
	cfg.Browser.PollInterval = time.Millisecond
	cfg.Fetch.Timeout = 5 * time.Second

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func findSource(t *testing.T, srv *Server, pageURL string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"url": pageURL})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/find_source", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestFindSourceEndToEnd(t *testing.T) {
	upstream := newUpstream(t)
	srv := newStaticServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"game page", "/bus-parking/", http.StatusOK, `{"source":"` + gameSource + `"}`},
		{"page without game", "/about/", http.StatusNotFound, `{"error":"No source URL found"}`},
		{"upstream failure", "/broken/", http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := findSource(t, srv, upstream.URL+tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}

	snap := srv.Stats().Snapshot()
	assert.Equal(t, stats.Snapshot{Total: 3, Today: 3, SuccessRate: 33}, snap)
}

func TestRoutes(t *testing.T) {
	srv := newStaticServer(t)

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantContain string
	}{
		{"landing page", http.MethodGet, "/", http.StatusOK, "Game Source Finder"},
		{"health", http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{"stats", http.MethodGet, "/stats", http.StatusOK, `"successRate":0`},
		{"unknown route", http.MethodGet, "/missing", http.StatusNotFound, "Not Found"},
		{"wrong method", http.MethodGet, "/find_source", http.StatusMethodNotAllowed, "Method Not Allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantContain)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	upstream := newUpstream(t)
	srv := newStaticServer(t)

	findSource(t, srv, upstream.URL+"/bus-parking/")

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `gamesource_lookups_total{engine="static",outcome="found"} 1`)
	assert.Contains(t, body, `gamesource_http_requests_total`)
	assert.Equal(t, int64(2), srv.Metrics().Snapshot().TotalRequests)
}

func TestCORSAndTraceHeaders(t *testing.T) {
	srv := newStaticServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/find_source", nil)
	req.Header.Set("Origin", "https://games.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestOversizedBody(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Engine = config.EngineStatic
	cfg.Server.MaxBodyBytes = 64

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	defer srv.Close()

	w := findSource(t, srv, "https://www.onlinegames.io/"+strings.Repeat("x", 128))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown engine", func(c *config.Config) { c.Browser.Engine = "netscape" }},
		{"bad trusted proxy", func(c *config.Config) {
			c.Browser.Engine = config.EngineStatic
			c.Server.TrustedProxies = []string{"not-an-ip"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, err := NewServer(cfg, logging.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestHealthReportsEngineState(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Engine = config.EngineStatic
	cfg.Browser.PoolSize = 2

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health api.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, api.HealthOK, health.Status)
	assert.Equal(t, config.EngineStatic, health.Engine)
	assert.NotEmpty(t, health.Uptime)
	require.NotNil(t, health.HTTP)

	require.Len(t, health.Breakers, 2)
	assert.Equal(t, "browser-launch", health.Breakers[0].Name)
	assert.Equal(t, "http-fetch", health.Breakers[1].Name)
	assert.Equal(t, "closed", health.Breakers[0].State)

	require.NotNil(t, health.Pool)
	assert.Equal(t, 2, health.Pool.Size)
	assert.Equal(t, 0, health.Pool.InUse)
}

func TestCloseIsIdempotent(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Engine = config.EngineStatic
	cfg.Browser.PoolSize = 2

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)

	assert.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
}

func TestLandingPageIsGzipped(t *testing.T) {
	srv := newStaticServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	page, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Game Source Finder")
}
