// Package resource implements lazy resolution for API objects constructed
// from partial JSON fragments. A fragment returned embedded inside another
// response may be missing fields; the first access to a missing field
// fetches the complete representation once, and every later read is served
// from that memoized result.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Caller is the outbound access layer; *client.Client satisfies it
type Caller interface {
	Call(ctx context.Context, pathOrURL string, params map[string]any) ([]byte, error)
}

// FieldNotFoundError is returned whenever a field cannot be produced,
// whether or not a resolution attempt was made, so callers see uniform
// missing-field semantics.
type FieldNotFoundError struct {
	Resource string
	Field    string
	Err      error
}

func (e *FieldNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s has no field %q: %v", e.Resource, e.Field, e.Err)
	}
	return fmt.Sprintf("%s has no field %q", e.Resource, e.Field)
}

func (e *FieldNotFoundError) Unwrap() error {
	return e.Err
}

// LookupFunc overrides how a resource finds its complete representation.
// Used by resources identified only by a symbolic short name, which
// resolve by scanning the full listing of their type.
type LookupFunc func(ctx context.Context) (map[string]json.RawMessage, error)

// Resource wraps a JSON field map in one of two states: partial (built
// from a fragment, some fields absent) or complete (fully fetched). The
// transition is one-way and happens at most once per instance; the
// complete representation is a separate value, so a fragment is never
// mutated in place and instances are safe to share between goroutines.
type Resource struct {
	api      Caller
	name     string
	basePath string
	link     string
	fields   map[string]json.RawMessage
	complete bool
	lookup   LookupFunc

	mu   sync.Mutex
	full *Resource
}

// FromJSON constructs a resource from a raw JSON object
func FromJSON(api Caller, name, basePath string, raw []byte) (*Resource, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s fragment: %w", name, err)
	}
	return FromFields(api, name, basePath, fields), nil
}

// FromFields constructs a resource from an already-decoded field map
func FromFields(api Caller, name, basePath string, fields map[string]json.RawMessage) *Resource {
	r := &Resource{
		api:      api,
		name:     name,
		basePath: basePath,
		fields:   fields,
	}
	if raw, ok := fields["APILink"]; ok {
		var link string
		if err := json.Unmarshal(raw, &link); err == nil {
			r.link = link
		}
	}
	return r
}

// FromID constructs a partial resource that knows nothing but its ID
func FromID(api Caller, name, basePath string, id int64) *Resource {
	fields := map[string]json.RawMessage{
		"ID": json.RawMessage(strconv.FormatInt(id, 10)),
	}
	return FromFields(api, name, basePath, fields)
}

// WithLookup sets a custom resolution strategy; returns the resource
func (r *Resource) WithLookup(fn LookupFunc) *Resource {
	r.lookup = fn
	return r
}

// MarkComplete tags the resource as already holding every field it will
// ever have, so missing fields fail without a fetch.
func (r *Resource) MarkComplete() *Resource {
	r.complete = true
	return r
}

// Name returns the resource type name used in error messages
func (r *Resource) Name() string {
	return r.name
}

// ID returns the numeric identifier, if the fragment carries one
func (r *Resource) ID() (int64, bool) {
	raw, ok := r.fields["ID"]
	if !ok {
		return 0, false
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, false
	}
	return id, true
}

// Has reports whether the field is present without triggering resolution
func (r *Resource) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// Fields returns a copy of the raw field map currently held. This is the
// unknown-fields side channel: anything the API returns is reachable here
// even without a typed accessor.
func (r *Resource) Fields() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Get returns the raw JSON for a field, resolving the complete
// representation on first miss. A field absent even from the complete
// representation, or unreachable because the resource has neither an API
// link nor an identifier, yields a FieldNotFoundError.
func (r *Resource) Get(ctx context.Context, field string) (json.RawMessage, error) {
	if raw, ok := r.fields[field]; ok {
		return raw, nil
	}
	if r.complete {
		return nil, &FieldNotFoundError{Resource: r.name, Field: field}
	}

	full, err := r.Resolved(ctx)
	if err != nil {
		return nil, &FieldNotFoundError{Resource: r.name, Field: field, Err: err}
	}

	if raw, ok := full.fields[field]; ok {
		return raw, nil
	}
	return nil, &FieldNotFoundError{Resource: r.name, Field: field}
}

// Resolved returns the complete representation of this resource, fetching
// it on first use. The result is memoized per instance: once a fetch
// succeeds, no further network calls happen for any field of this value.
func (r *Resource) Resolved(ctx context.Context) (*Resource, error) {
	if r.complete {
		return r, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full != nil {
		return r.full, nil
	}

	fetched, err := r.fetchComplete(ctx)
	if err != nil {
		return nil, err
	}

	// The complete field map is a superset of the fragment: fragment-only
	// fields (such as injected counts) survive the merge.
	merged := make(map[string]json.RawMessage, len(r.fields)+len(fetched))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fetched {
		merged[k] = v
	}

	full := FromFields(r.api, r.name, r.basePath, merged)
	full.complete = true
	r.full = full
	return full, nil
}

func (r *Resource) fetchComplete(ctx context.Context) (map[string]json.RawMessage, error) {
	if r.lookup != nil {
		return r.lookup(ctx)
	}

	path := r.link
	if path == "" {
		id, ok := r.ID()
		if !ok || r.basePath == "" {
			return nil, fmt.Errorf("no API link or ID to resolve %s", r.name)
		}
		path = fmt.Sprintf("%s/%d", r.basePath, id)
	}

	body, err := r.api.Call(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode complete %s: %w", r.name, err)
	}
	return fields, nil
}

// String decodes a string field
func (r *Resource) String(ctx context.Context, field string) (string, error) {
	raw, err := r.Get(ctx, field)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s of %s is not a string: %w", field, r.name, err)
	}
	return s, nil
}

// Int decodes an integer field
func (r *Resource) Int(ctx context.Context, field string) (int, error) {
	raw, err := r.Get(ctx, field)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("field %s of %s is not an integer: %w", field, r.name, err)
	}
	return n, nil
}

// Bool decodes a boolean field
func (r *Resource) Bool(ctx context.Context, field string) (bool, error) {
	raw, err := r.Get(ctx, field)
	if err != nil {
		return false, err
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("field %s of %s is not a boolean: %w", field, r.name, err)
	}
	return b, nil
}

// Date decodes an ISO-8601 date or datetime field into its date part
func (r *Resource) Date(ctx context.Context, field string) (time.Time, error) {
	s, err := r.String(ctx, field)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("field %s of %s is not a date: %q", field, r.name, s)
}

// Caller exposes the access layer this resource was created with, so
// derived lookups reuse the same budget and cache.
func (r *Resource) Caller() Caller {
	return r.api
}
