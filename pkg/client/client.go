// Package client provides the Canvas HTTP client with request pacing, rate
// limit gating, ETag caching, retries and a circuit breaker. *Client
// implements transport.Transport, so the pagination package drives it
// directly.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/canvas-client/pkg/cache"
	"github.com/Sternrassler/canvas-client/pkg/logging"
	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/Sternrassler/canvas-client/pkg/ratelimit"
	"github.com/Sternrassler/canvas-client/pkg/transport"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client is the Canvas API client. It is safe for concurrent use. The
// acting-as identity of a request comes from its context (query.WithActingAs)
// or, failing that, from the client copy returned by Masquerade.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	cache      *cache.Manager
	breaker    *gobreaker.CircuitBreaker
	config     Config
	logger     zerolog.Logger

	actingAs string
}

// Config holds the client configuration.
type Config struct {
	// HTTPClient performs the requests. Authentication belongs here, e.g. an
	// oauth2 client carrying the Canvas access token.
	HTTPClient *http.Client

	// BaseURL is the Canvas instance root, e.g. https://canvas.example.edu.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Redis holds shared rate limit state and, with EnableCache, the ETag
	// cache. Optional.
	Redis       *redis.Client
	EnableCache bool

	// Client-side pacing. Zero RequestsPerSecond disables pacing.
	RequestsPerSecond float64
	Burst             int

	// ThrottleDelay is the pause applied while the Canvas bucket is in the
	// warning band.
	ThrottleDelay time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Circuit breaker. Zero BreakerFailures disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(httpClient *http.Client, baseURL, userAgent string) Config {
	return Config{
		HTTPClient:        httpClient,
		BaseURL:           baseURL,
		UserAgent:         userAgent,
		RequestsPerSecond: 10,
		Burst:             5,
		ThrottleDelay:     ratelimit.DefaultThrottleDelay,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// New creates a new Canvas client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %v)", cfg.RequestsPerSecond)
	}
	if cfg.RequestsPerSecond > 0 && cfg.Burst < 1 {
		return nil, fmt.Errorf("burst must be >= 1 when pacing (got %d)", cfg.Burst)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.MaxRetries > 0 && (cfg.InitialBackoff <= 0 || cfg.MaxBackoff < cfg.InitialBackoff) {
		return nil, fmt.Errorf("backoff must satisfy 0 < initial <= max (got %v, %v)", cfg.InitialBackoff, cfg.MaxBackoff)
	}
	if cfg.EnableCache && cfg.Redis == nil {
		return nil, fmt.Errorf("cache requires a redis client")
	}

	logger := logging.NewLogger("client")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis)
	}
	tracker := ratelimit.NewTracker(store, logger)
	tracker.SetThrottleDelay(cfg.ThrottleDelay)

	var cacheManager *cache.Manager
	if cfg.EnableCache {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    base,
		limiter:    rate.NewLimiter(limit, max(cfg.Burst, 1)),
		tracker:    tracker,
		cache:      cacheManager,
		config:     cfg,
		logger:     logger,
	}

	if cfg.BreakerFailures > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "canvas",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			IsSuccessful: breakerSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	return c, nil
}

// breakerSuccess counts server and network failures against the breaker.
// Throttling and client errors say nothing about Canvas being down.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errorClass(err) == transport.ErrorClassRateLimit
}

// Masquerade returns a copy of the client that acts as userID on every
// request whose context carries no identity of its own. The receiver is not
// modified. An empty userID returns a copy acting as the token's own user.
func (c *Client) Masquerade(userID string) *Client {
	cp := *c
	cp.actingAs = userID
	return &cp
}

// ActingAs returns the identity set by Masquerade.
func (c *Client) ActingAs() string {
	return c.actingAs
}

// actingAsFor returns the identity for a request: the context's, else the
// client's.
func (c *Client) actingAsFor(ctx context.Context) string {
	if id, ok := query.ActingAsFrom(ctx); ok {
		return id
	}
	return c.actingAs
}

// URL returns the absolute URL for an API path and query parameters. The
// acting-as identity is not included; Issue adds it.
func (c *Client) URL(path string, params *query.Params) string {
	u := c.resolve(path)
	q := params.Encode("")
	if q == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + q
	}
	return u + "?" + q
}

func (c *Client) resolve(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return c.baseURL.String() + "/" + strings.TrimLeft(rawURL, "/")
}

// Issue performs one logical request, retries included, and returns the fully
// read response. rawURL may be absolute or a path relative to BaseURL.
//
// For body-less requests the acting-as identity is written into the URL as
// the final as_user_id pair, replacing any already present. Requests with a
// body are sent as given; the body encoders place the identity themselves.
//
// Non-2xx responses are returned as responses. The error is non-nil only
// when no response is available: ctx ended, the rate limit gate or circuit
// breaker refused the request, or the network failed on every attempt.
func (c *Client) Issue(ctx context.Context, method, rawURL string, body *query.Body) (*transport.Response, error) {
	actingAs := c.actingAsFor(ctx)

	target := c.resolve(rawURL)
	if body == nil && actingAs != "" {
		var err error
		if target, err = query.EnsureActingAs(target, actingAs); err != nil {
			return nil, &transport.Error{
				Method:  method,
				URL:     target,
				Class:   transport.ErrorClassClient,
				Message: "invalid request url",
				Err:     err,
			}
		}
	}

	logger := logging.ForRequest(c.logger, method, target, actingAs)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	var cacheKey cache.Key
	var cached *cache.Entry
	if method == http.MethodGet && c.cache != nil {
		cacheKey = cache.KeyFromURL(target, actingAs)
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
		cached = entry
	}

	b, hinted := c.newBackOff(ctx)
	attempts := 0
	op := func() (*transport.Response, error) {
		attempts++
		resp, err := c.attempt(ctx, method, target, body, cached)
		if err == nil {
			return resp, nil
		}

		var rs *retryableStatus
		if errors.As(err, &rs) {
			hinted.hint = retryAfter(rs.resp.Header)
			return rs.resp, err
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if isNetworkError(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		class := errorClass(err)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
		logger.Warn().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempts).
			Dur("backoff", wait).
			Msg("Retrying Canvas request after backoff")
	}

	resp, err := backoff.RetryNotifyWithData(op, b, notify)
	if err != nil {
		var rs *retryableStatus
		switch {
		case errors.As(err, &rs):
			retryExhaustedTotal.WithLabelValues(string(rs.class)).Inc()
			logger.Warn().
				Int("status_code", rs.resp.StatusCode).
				Int("attempts", attempts).
				Msg("Retry attempts exhausted, returning last response")
			resp = rs.resp
		case ctx.Err() != nil:
			return nil, err
		case c.config.MaxRetries > 0 && isNetworkError(err):
			retryExhaustedTotal.WithLabelValues(string(transport.ErrorClassNetwork)).Inc()
			logger.Error().Err(err).Int("attempts", attempts).Msg("Canvas request failed")
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
		default:
			logger.Error().Err(err).Msg("Canvas request failed")
			return nil, err
		}
	} else if attempts > 1 {
		logger.Info().Int("attempt", attempts).Msg("Request succeeded after retry")
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		logger.Debug().Str("etag", cached.ETag).Msg("304 Not Modified - using cache")
		headers := cache.Revalidated(cached, resp.Header)
		if err := c.cache.Touch(ctx, cacheKey, cached, cache.RetainUntil(resp.Header)); err != nil {
			logger.Warn().Err(err).Msg("Failed to extend cache entry")
		}
		requestsTotal.WithLabelValues(method, "304").Inc()
		return &transport.Response{
			StatusCode: cached.StatusCode,
			Header:     headers,
			Body:       cached.Data,
			URL:        target,
		}, nil
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if method == http.MethodGet && c.cache != nil && cache.Cacheable(resp.StatusCode, resp.Header) {
		if err := c.cache.Set(ctx, cacheKey, cache.NewEntry(resp.StatusCode, resp.Header, resp.Body)); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// attempt sends the request once, after pacing and the rate limit gate.
func (c *Client) attempt(ctx context.Context, method, target string, body *query.Body, cached *cache.Entry) (*transport.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	allowed, err := c.tracker.ShouldAllowRequest(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		requestsTotal.WithLabelValues(method, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	if c.breaker == nil {
		return c.roundTrip(ctx, method, target, body, cached)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, target, body, cached)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		circuitOpenTotal.Inc()
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	resp, _ := out.(*transport.Response)
	return resp, err
}

// roundTrip performs a single HTTP exchange and reads the whole body.
func (c *Client) roundTrip(ctx context.Context, method, target string, body *query.Body, cached *cache.Entry) (*transport.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.Data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &transport.Error{
			Method:  method,
			URL:     target,
			Class:   transport.ErrorClassClient,
			Message: "create request",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.ContentType)
	}
	if method == http.MethodGet && cache.AddConditionalHeaders(req, cached) {
		c.logger.Debug().Str("url", target).Str("etag", cached.ETag).Msg("Making conditional request")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(transport.ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &transport.Error{
			Method:  method,
			URL:     target,
			Class:   transport.ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(transport.ErrorClassNetwork)).Inc()
		return nil, &transport.Error{
			Method:     method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Class:      transport.ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	if err := c.tracker.UpdateFromHeaders(ctx, httpResp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	resp := &transport.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		URL:        target,
	}

	if class := transport.Classify(resp.StatusCode, resp.Body); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("method", method).
			Str("url", target).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Canvas request error")
		if class.Retryable() {
			return resp, &retryableStatus{resp: resp, class: class}
		}
	}

	return resp, nil
}

// Get performs a GET and returns a *transport.Error for non-2xx statuses.
func (c *Client) Get(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	return c.do(ctx, http.MethodGet, c.URL(path, params), nil)
}

// Delete performs a DELETE with params in the query string.
func (c *Client) Delete(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	return c.do(ctx, http.MethodDelete, c.URL(path, params), nil)
}

// Post performs a POST with params as a urlencoded form body.
func (c *Client) Post(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	return c.do(ctx, http.MethodPost, c.resolve(path), params.Form(c.actingAsFor(ctx)))
}

// Put performs a PUT with params as a urlencoded form body.
func (c *Client) Put(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	return c.do(ctx, http.MethodPut, c.resolve(path), params.Form(c.actingAsFor(ctx)))
}

// Patch performs a PATCH with params as a urlencoded form body.
func (c *Client) Patch(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	return c.do(ctx, http.MethodPatch, c.resolve(path), params.Form(c.actingAsFor(ctx)))
}

// PostMultipart performs a POST with params as multipart/form-data fields.
func (c *Client) PostMultipart(ctx context.Context, path string, params *query.Params) (*transport.Response, error) {
	body, err := params.Multipart(c.actingAsFor(ctx))
	if err != nil {
		return nil, fmt.Errorf("encode multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.resolve(path), body)
}

func (c *Client) do(ctx context.Context, method, target string, body *query.Body) (*transport.Response, error) {
	resp, err := c.Issue(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, transport.StatusError(method, resp)
	}
	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// RateLimitState returns the tracker's current view of the Canvas bucket.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.State, error) {
	return c.tracker.GetState(ctx)
}

// Limit returns the configured pacing rate in requests per second, or +Inf.
func (c *Client) Limit() float64 {
	l := c.limiter.Limit()
	if l == rate.Inf {
		return math.Inf(1)
	}
	return float64(l)
}
