package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority levels. Anything else is stored as PriorityNormal.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("memory not found")

	// ErrEmptyKey is returned for an empty key.
	ErrEmptyKey = errors.New("memory key cannot be empty")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("memory store is closed")
)

// Store is long-term key/value memory with metadata, scoped to one agent
// namespace. Implementations are safe for concurrent use.
type Store interface {
	// Put creates or replaces a record. Replacing resets its metadata.
	Put(ctx context.Context, key string, content any, opts PutOptions) error

	// Get returns a record and counts the access.
	Get(ctx context.Context, key string) (*Record, error)

	// Update replaces the content of an existing record, keeping its
	// priority, tags, creation time and expiry.
	Update(ctx context.Context, key string, content any) error

	// Delete removes a record.
	Delete(ctx context.Context, key string) error

	// List returns the live records matching filter, ordered by key.
	List(ctx context.Context, filter ListFilter) ([]*Record, error)

	// Search returns live records whose content or tags contain query,
	// case-insensitively. limit <= 0 means no limit.
	Search(ctx context.Context, query string, limit int) ([]*Record, error)

	// PruneExpired deletes records whose TTL has passed.
	PruneExpired(ctx context.Context) (int64, error)

	// Close releases the store.
	Close() error
}

// PutOptions carries the metadata of a new record.
type PutOptions struct {
	Priority string
	Tags     []string

	// TTL is the record lifetime; zero keeps it until deleted.
	TTL time.Duration
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Tag      string
	Priority string
	Limit    int
}

// Record is a stored memory.
type Record struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Content  string   `json:"content"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastAccessed time.Time  `json:"last_accessed"`
	AccessCount  int64      `json:"access_count"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Value decodes Content when it holds JSON, and returns it verbatim
// otherwise.
func (r *Record) Value() any {
	var v any
	if err := json.Unmarshal([]byte(r.Content), &v); err == nil {
		return v
	}
	return r.Content
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *Record) expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// NormalizePriority returns p lowercased, or PriorityNormal when p is not
// a known level.
func NormalizePriority(p string) string {
	switch strings.ToLower(p) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// EncodeContent stores strings, numbers and booleans as text and every
// other value as JSON.
func EncodeContent(content any) (string, error) {
	switch v := content.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case json.RawMessage:
		return string(v), nil
	}

	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode memory content: %w", err)
	}
	return string(data), nil
}

// StoreError wraps a backend failure.
type StoreError struct {
	Backend   string
	Operation string
	Key       string
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("memory %s %s %q: %v", e.Backend, e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("memory %s %s: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// namespace prefixes keys with an agent id.
type namespace string

func (n namespace) full(key string) string {
	if n == "" {
		return key
	}
	return string(n) + ":" + key
}

func (n namespace) prefix() string {
	if n == "" {
		return ""
	}
	return string(n) + ":"
}

func (n namespace) strip(full string) string {
	return strings.TrimPrefix(full, n.prefix())
}

func copyTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return append([]string(nil), tags...)
}
