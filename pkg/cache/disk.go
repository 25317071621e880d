package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultRetention is how long expired entries are kept for the stale
// fallback before a sweep removes them.
const DefaultRetention = 7 * 24 * time.Hour

// DiskStore persists entries as a directory tree mirroring URL path
// segments, one JSON file per entry.
type DiskStore struct {
	root      string
	retention time.Duration
}

// NewDiskStore creates a store rooted at dir, creating it if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskStore{root: dir, retention: DefaultRetention}, nil
}

// WithRetention overrides how long expired entries are kept for sweeps
func (s *DiskStore) WithRetention(retention time.Duration) *DiskStore {
	s.retention = retention
	return s
}

func (s *DiskStore) path(key Key) string {
	return filepath.Join(s.root, key.Filename())
}

func (s *DiskStore) Get(_ context.Context, key Key) (*Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt file is treated as a miss so the caller refetches
		_ = os.Remove(s.path(key))
		return nil, ErrMiss
	}
	return &entry, nil
}

func (s *DiskStore) Set(_ context.Context, key Key, entry *Entry) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache subdirectory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// Write-then-rename so readers never observe a partial entry
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize cache entry: %w", err)
	}
	return nil
}

func (s *DiskStore) Delete(_ context.Context, key Key) error {
	path := s.path(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	s.pruneEmptyParents(filepath.Dir(path))
	return nil
}

// Sweep removes entries expired for longer than the retention period
func (s *DiskStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	cutoff := time.Now().Add(-s.retention)

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			// Corrupt files go too
			if os.Remove(path) == nil {
				removed++
			}
			return nil
		}
		if entry.ExpiresAt.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
				s.pruneEmptyParents(filepath.Dir(path))
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cache sweep failed: %w", err)
	}
	return removed, nil
}

// pruneEmptyParents removes now-empty directories up to the cache root
func (s *DiskStore) pruneEmptyParents(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
