// Package client implements the shared access layer for the Ausmash API:
// every outbound call goes through one rate-limited, cache-backed Call
// entry point. Responses are served from the cache store when a live entry
// exists; only cache misses touch the rate budget and the network.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jstittsworth/ausmash-go/pkg/cache"
	"github.com/jstittsworth/ausmash-go/pkg/config"
	"github.com/jstittsworth/ausmash-go/pkg/logger"
)

// Params carries query parameters for a call. Values may be strings,
// integers, booleans or time.Time (serialized as an ISO-8601 date).
type Params = map[string]any

// Doer abstracts the HTTP transport so tests can inject a fake one
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the caching, rate-limited entry point for all Ausmash API
// calls. It is safe for concurrent use; callers within one process should
// share a single instance so they share one budget and one cache.
type Client struct {
	endpoint     string
	apiKey       string
	userAgent    string
	httpClient   Doer
	store        cache.Store
	cacheTTL     time.Duration
	budget       *budget
	sleepOnLimit bool
	breaker      *gobreaker.CircuitBreaker
	logger       *logrus.Logger
}

// Option customizes a Client beyond what configuration provides
type Option func(*Client)

// WithHTTPClient injects a custom transport, useful for testing
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithStore injects a custom cache store
func WithStore(s cache.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithLogger overrides the logger
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client from configuration
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	log := logger.GetLogger()

	c := &Client{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		userAgent:    cfg.UserAgent,
		cacheTTL:     cfg.CacheTTL,
		budget:       newBudget(cfg.RateLimitSecond, cfg.RateLimitMinute, cfg.RateLimitHour),
		sleepOnLimit: cfg.SleepOnRateLimit,
		logger:       log,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ausmash-api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// A 404 or other HTTP answer means the service is up and
			// responding; the breaker only tracks failures to reach it.
			var notFound *NotFoundError
			var protocol *ProtocolError
			return errors.As(err, &notFound) || errors.As(err, &protocol)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	})

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}

	if c.store == nil {
		switch strings.ToLower(cfg.CacheBackend) {
		case "redis":
			store, err := cache.NewRedisStore(cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("failed to create redis cache: %w", err)
			}
			c.store = store
		default:
			store, err := cache.NewDiskStore(cfg.CacheDir)
			if err != nil {
				return nil, fmt.Errorf("failed to create disk cache: %w", err)
			}
			c.store = store
		}
	}

	return c, nil
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide shared client, building it from
// configuration on first use.
func Default() (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defaultClient = c
	return c, nil
}

// SetDefault swaps the process-wide client, useful for tests
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Call performs a GET against the Ausmash endpoint, or against a complete
// URL if one is given (used for APILink fields). The response body is
// returned from cache when a live entry exists; otherwise the request is
// admitted against the rate budget, sent, and its response persisted.
func (c *Client) Call(ctx context.Context, pathOrURL string, params Params) ([]byte, error) {
	target, values, err := c.resolve(pathOrURL, params)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(target.Path, values)

	stale, err := c.store.Get(ctx, key)
	if err == nil && !stale.Expired() {
		c.logger.WithField("path", key.Path).Debug("Cache hit")
		return stale.Body, nil
	}
	if err != nil {
		stale = nil
	}

	if err := c.budget.admit(ctx, c.sleepOnLimit); err != nil {
		return nil, err
	}

	body, contentType, err := c.fetch(ctx, target)
	if err != nil {
		if stale != nil && isTransportError(err) {
			c.logger.WithFields(logrus.Fields{
				"path": key.Path,
				"age":  stale.Age().String(),
			}).Warnf("Serving stale cache entry after transport failure: %v", err)
			return stale.Body, nil
		}
		return nil, err
	}

	if err := c.store.Set(ctx, key, cache.NewEntry(body, contentType, c.cacheTTL)); err != nil {
		c.logger.Warnf("Failed to persist cache entry for %s: %v", key.Path, err)
	}

	return body, nil
}

// fetch performs the network round trip behind the circuit breaker
func (c *Client) fetch(ctx context.Context, target *url.URL) ([]byte, string, error) {
	requestID := uuid.NewString()
	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       target.Path,
	}).Debug("Fetching from API")

	type response struct {
		body        []byte
		contentType string
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("X-ApiKey", c.apiKey)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		c.budget.record()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, &NotFoundError{Path: target.Path}
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, &ProtocolError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Path:       target.Path,
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
	})
	if err != nil {
		// A breaker rejection never reached the network, so the
		// admission charged in Call must not count against the windows.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.budget.refund()
		}
		return nil, "", err
	}

	resp := result.(response)
	return resp.body, resp.contentType, nil
}

// resolve builds the target URL from a path or complete URL plus params
func (c *Client) resolve(pathOrURL string, params Params) (*url.URL, url.Values, error) {
	raw := pathOrURL
	if !strings.Contains(raw, "://") {
		raw = c.endpoint + "/" + strings.TrimPrefix(raw, "/")
	}

	target, err := url.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid request URL %q: %w", pathOrURL, err)
	}

	values := target.Query()
	for k, v := range params {
		values.Set(k, paramString(v))
	}
	// url.Values.Encode sorts by key, so the wire query carries the same
	// canonical ordering as the cache key
	target.RawQuery = values.Encode()

	return target, values, nil
}

// paramString serializes one parameter value; dates use ISO-8601
func paramString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case time.Time:
		return value.Format("2006-01-02")
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// isTransportError distinguishes network-level failures (eligible for the
// stale fallback) from remote answers like 404 or 500 (propagated as-is).
// Caller-initiated cancellation is not a transport failure.
func isTransportError(err error) bool {
	switch err.(type) {
	case *NotFoundError, *ProtocolError:
		return false
	}
	return !errors.Is(err, context.Canceled)
}
