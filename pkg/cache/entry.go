package cache

import "time"

// Entry is one stored API response
type Entry struct {
	Body        []byte    `json:"body"`
	ContentType string    `json:"content_type"`
	StoredAt    time.Time `json:"stored_at"`

	// ExpiresAt equal to StoredAt means the entry is immediately stale
	// (always-revalidate mode); it is still served as a stale fallback.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry builds an entry stored now with the given time to live.
// A non-positive ttl produces an immediately stale entry.
func NewEntry(body []byte, contentType string, ttl time.Duration) *Entry {
	now := time.Now().UTC()
	e := &Entry{
		Body:        body,
		ContentType: contentType,
		StoredAt:    now,
		ExpiresAt:   now,
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// Expired reports whether the entry is past its declared expiry
func (e *Entry) Expired() bool {
	return !time.Now().Before(e.ExpiresAt)
}

// Age returns how long ago the entry was stored
func (e *Entry) Age() time.Duration {
	return time.Since(e.StoredAt)
}
