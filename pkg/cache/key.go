package cache

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Key is the normalized signature of one API request. The host is not part
// of the key; two requests for the same path with the same parameter
// multiset produce the same key regardless of parameter order.
type Key struct {
	// Path is the URL path with the leading slash trimmed, e.g. "tourneys/123"
	Path string

	// Query is the canonical sorted encoding of the query parameters, or ""
	Query string
}

// NewKey builds a Key from a request path and its query parameters.
// url.Values.Encode sorts by key, which makes the encoding canonical.
func NewKey(path string, params url.Values) Key {
	k := Key{Path: strings.Trim(path, "/")}
	if len(params) > 0 {
		k.Query = params.Encode()
	}
	return k
}

// String returns the key in "path?query" form, used as a Redis key suffix
func (k Key) String() string {
	if k.Query == "" {
		return k.Path
	}
	return k.Path + "?" + k.Query
}

// Filename maps the key onto a relative file path. Path segments become
// directories, with the query string (already percent-escaped, so free of
// separators) appended as a final segment when present.
func (k Key) Filename() string {
	segments := strings.Split(k.Path, "/")
	if k.Query != "" {
		segments = append(segments, k.Query)
	}
	return filepath.Join(segments...) + ".json"
}
