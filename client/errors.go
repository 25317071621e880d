package client

import "fmt"

// NotFoundError is returned when the API answers 404 for a resource.
// It is never retried and never absorbed by the stale fallback.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

// RateLimitError is returned under the fail-fast policy when one more
// request would reach a window's ceiling. Under the sleep policy the same
// condition blocks instead.
type RateLimitError struct {
	Window string // "second", "minute" or "hour"
	Limit  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests in one %s", e.Limit, e.Window)
}

// ProtocolError is returned for any non-success HTTP status other than 404
type ProtocolError struct {
	StatusCode int
	Status     string
	Path       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response %s for %s", e.Status, e.Path)
}
