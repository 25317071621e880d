// Package cache persists API responses keyed by their request signature,
// so repeated calls for the same resource never touch the network while a
// live entry exists, and expired entries stay available as a stale fallback.
package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned when no entry exists for a key
var ErrMiss = errors.New("cache: entry not found")

// Store is the persistence backend for cached API responses
type Store interface {
	// Get retrieves the entry for a key, expired or not. Returns ErrMiss
	// when nothing is stored for the key.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores an entry for a key, replacing any previous one
	Set(ctx context.Context, key Key, entry *Entry) error

	// Delete removes the entry for a key, if any
	Delete(ctx context.Context, key Key) error
}

// Sweeper is implemented by stores that can purge long-expired entries
type Sweeper interface {
	// Sweep removes entries that have been expired for longer than the
	// store's retention period and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}
