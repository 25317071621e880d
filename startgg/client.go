// Package startgg is a minimal client for the start.gg GraphQL API,
// used to pull seeding and entrant data for brackets that were imported
// from start.gg. It is paced independently of the main service's budget
// since start.gg enforces its own request limit.
package startgg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/ausmash-go/pkg/logger"
)

// DefaultEndpoint is the public start.gg GraphQL endpoint
const DefaultEndpoint = "https://api.start.gg/gql/alpha"

const requestTimeout = 10 * time.Second

// start.gg allows 80 requests per 60 seconds
var defaultLimit = rate.Limit(80.0 / 60.0)

// Doer abstracts the HTTP transport for testing
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GraphQLError is one entry of a GraphQL errors array
type GraphQLError struct {
	ID         string         `json:"id,omitempty"`
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

// APIError is a GraphQL response carrying an errors array; start.gg
// returns these with HTTP 200, so status alone is not enough.
type APIError struct {
	Errors []GraphQLError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "start.gg request failed"
	}
	messages := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		messages = append(messages, ge.Message)
	}
	return fmt.Sprintf("start.gg request failed: %s", strings.Join(messages, "; "))
}

// Client issues GraphQL queries against start.gg
type Client struct {
	endpoint   string
	apiKey     string
	httpClient Doer
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithEndpoint points the client somewhere other than the public API
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithLimiter overrides the default request pacing
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger overrides the package logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = log.WithField("component", "startgg")
	}
}

// New builds a client authenticating with the given API key
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(defaultLimit, 5),
		logger:     logger.WithComponent("startgg"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query posts {query, variables} and returns the data payload. An HTTP
// 200 carrying an errors array is a failure surfaced as *APIError with
// the structured error list intact.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode start.gg query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build start.gg request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("start.gg request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("start.gg returned %s", resp.Status)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode start.gg response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		c.logger.WithField("errors", len(envelope.Errors)).Warn("start.gg query returned errors")
		return nil, &APIError{Errors: envelope.Errors}
	}
	return envelope.Data, nil
}
