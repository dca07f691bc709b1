package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxBodyBytes caps how much of a response body is read
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// ErrServiceUnavailable is returned while the client's breaker is open
var ErrServiceUnavailable = errors.New("external service unavailable: circuit breaker open")

// StatusError reports a response outside the 2xx/3xx range
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Options configures a Client
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// RateLimit caps outbound requests per second; zero or less is unlimited
	RateLimit float64
	// MaxBodyBytes truncates response bodies; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// Response is the part of a fetched page the engines need
type Response struct {
	// URL is the final URL after redirects
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client wraps resty with rate limiting and a circuit breaker. It never
// retries: one lookup makes at most one request per page.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	maxBody int64
	mu      sync.RWMutex
}

// NewClient creates an HTTP client for fetching game pages
func NewClient(opts Options) *Client {
	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if opts.UserAgent != "" {
		restyClient.SetHeader("User-Agent", opts.UserAgent)
	}

	breaker := resilience.New("http-fetch", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// Sites vary; only trip on a sustained run of transport failures.
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	c := &Client{
		Resty:   restyClient,
		Breaker: breaker,
		maxBody: maxBody,
	}
	c.SetRateLimit(opts.RateLimit)
	return c
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Get fetches url. Transport failures and 5xx responses count against the
// breaker; every non-2xx/3xx status is returned as a *StatusError. At most
// MaxBodyBytes of the body are read.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	c.mu.RLock()
	limiter := c.Limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var (
		resp *resty.Response
		body []byte
	)
	err := c.Breaker.Execute(func() error {
		var err error
		resp, err = c.Resty.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get(url)
		if err != nil {
			return err
		}
		raw := resp.RawBody()
		defer raw.Close()

		if resp.StatusCode() >= http.StatusInternalServerError {
			return &StatusError{URL: url, StatusCode: resp.StatusCode()}
		}
		if resp.StatusCode() >= http.StatusBadRequest {
			return nil
		}
		body, err = io.ReadAll(io.LimitReader(raw, c.maxBody))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	return &Response{
		URL:         finalURL(resp, url),
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        body,
	}, nil
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}
