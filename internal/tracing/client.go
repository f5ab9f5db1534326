package tracing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/GriffinCanCode/tracewire/internal/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ClientConfig tunes the traced HTTP client.
type ClientConfig struct {
	// Timeout bounds each attempt including retries
	Timeout time.Duration
	// RetryCount is the number of retries after the first attempt
	RetryCount int
	// RetryWaitTime is the initial wait between retries
	RetryWaitTime time.Duration
	// RetryMaxWaitTime caps the wait between retries
	RetryMaxWaitTime time.Duration
	// RateLimit is outbound requests per second, 0 = unlimited
	RateLimit float64
	// RateBurst is the limiter burst, defaults from RateLimit
	RateBurst int
	// Breaker optionally guards calls, tripping on transport failures
	Breaker *resilience.Breaker
}

// Client wraps resty with rate limiting and a client span per request.
// Every call starts a span named "<METHOD> <host>" beneath the span in
// the caller's context and injects traceparent into the outbound
// headers, so the downstream service continues the same trace.
type Client struct {
	tracer  *Tracer
	http    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a production-ready traced HTTP client
func NewClient(t *Tracer, cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryWaitTime == 0 {
		cfg.RetryWaitTime = 1 * time.Second
	}
	if cfg.RetryMaxWaitTime == 0 {
		cfg.RetryMaxWaitTime = 30 * time.Second
	}

	// Create underlying retryable client
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryCount
	retryClient.RetryWaitMin = cfg.RetryWaitTime
	retryClient.RetryWaitMax = cfg.RetryMaxWaitTime
	retryClient.Logger = nil // Disable logging

	// Create resty client with retry support
	restyClient := resty.New()
	restyClient.
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime).
		SetHeader("User-Agent", "tracewire/1.0")

	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	return &Client{
		tracer:  t,
		http:    restyClient,
		limiter: newLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker: cfg.Breaker,
	}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0) // Unlimited
	}
	if burst <= 0 {
		burst = int(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Get performs a traced GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*resty.Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL)
}

// Do performs a traced request. The span ends when the call returns:
// a transport failure records the error, otherwise the response code
// is recorded and anything from 300 up marks the span as failed.
func (c *Client) Do(ctx context.Context, method, rawURL string) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	span, ctx := c.tracer.StartSpan(ctx, method+" "+hostOf(rawURL), WithKind(KindClient))
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.url", rawURL)

	req := c.http.R().SetContext(ctx)
	Inject(span.Context(), req.Header)

	resp, err := c.execute(req, method, rawURL)
	if err != nil {
		span.RecordError(err)
		_ = span.End()
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	span.SetAttribute("http.status_code", resp.StatusCode())
	if resp.StatusCode() >= http.StatusMultipleChoices {
		span.SetStatus(StatusError)
	} else {
		span.SetStatus(StatusOK)
	}
	_ = span.End()
	return resp, nil
}

// execute routes the request through the breaker when one is
// configured. Only transport failures count against the breaker;
// responses with error codes still came back from the downstream.
func (c *Client) execute(req *resty.Request, method, rawURL string) (*resty.Response, error) {
	if c.breaker == nil {
		return req.Execute(method, rawURL)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return req.Execute(method, rawURL)
	})
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

// hostOf keeps span names low-cardinality: the authority only, never
// the path or query.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
