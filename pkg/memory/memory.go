package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in a map. It does not persist across
// restarts.
type MemoryStore struct {
	opts options

	mu      sync.RWMutex
	records map[string]*Record
	closed  bool
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	o.logger = o.logger.With("component", "memory.inmemory")
	return &MemoryStore{
		opts:    o,
		records: make(map[string]*Record),
	}
}

// Put creates or replaces a record.
func (s *MemoryStore) Put(ctx context.Context, key string, content any, opts PutOptions) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("put", err) }()

	if key == "" {
		return ErrEmptyKey
	}
	text, err := EncodeContent(content)
	if err != nil {
		return err
	}

	now := s.opts.now()
	rec := &Record{
		ID:           uuid.NewString(),
		Key:          key,
		Content:      text,
		Priority:     NormalizePriority(opts.Priority),
		Tags:         copyTags(opts.Tags),
		CreatedAt:    now,
		UpdatedAt:    now,
		LastAccessed: now,
	}
	if opts.TTL > 0 {
		expires := now.Add(opts.TTL)
		rec.ExpiresAt = &expires
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	full := s.opts.namespace.full(key)
	// Replacing a key keeps its id, matching the SQLite upsert.
	if prev, ok := s.records[full]; ok {
		rec.ID = prev.ID
	}
	s.records[full] = rec

	s.opts.logger.DebugContext(ctx, "memory saved", "key", key, "priority", rec.Priority)
	return nil
}

// Get returns a copy of the record and counts the access.
func (s *MemoryStore) Get(ctx context.Context, key string) (_ *Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("get", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.live(key)
	if err != nil {
		return nil, err
	}
	rec.AccessCount++
	rec.LastAccessed = s.opts.now()
	return cloneRecord(rec), nil
}

// Update replaces the content of a live record.
func (s *MemoryStore) Update(ctx context.Context, key string, content any) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("update", err) }()

	text, err := EncodeContent(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.live(key)
	if err != nil {
		return err
	}
	now := s.opts.now()
	rec.Content = text
	rec.UpdatedAt = now
	rec.LastAccessed = now
	rec.AccessCount++
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(ctx context.Context, key string) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.live(key); err != nil {
		return err
	}
	delete(s.records, s.opts.namespace.full(key))
	return nil
}

// List returns the live records matching filter.
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) (_ []*Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("list", err) }()

	return s.collect(filter.Limit, func(rec *Record) bool {
		if filter.Priority != "" && rec.Priority != NormalizePriority(filter.Priority) {
			return false
		}
		return filter.Tag == "" || rec.HasTag(filter.Tag)
	})
}

// Search returns live records whose content or tags contain query.
func (s *MemoryStore) Search(ctx context.Context, query string, limit int) (_ []*Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("search", err) }()

	needle := strings.ToLower(query)
	return s.collect(limit, func(rec *Record) bool {
		if strings.Contains(strings.ToLower(rec.Content), needle) {
			return true
		}
		for _, tag := range rec.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	})
}

// PruneExpired deletes expired records.
func (s *MemoryStore) PruneExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	now := s.opts.now()
	var n int64
	for full, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, full)
			n++
		}
	}
	return n, nil
}

// Close drops every record.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}

// live returns the stored record for key; the caller holds s.mu.
func (s *MemoryStore) live(key string) (*Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	rec, ok := s.records[s.opts.namespace.full(key)]
	if !ok || rec.expired(s.opts.now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) collect(limit int, match func(*Record) bool) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	now := s.opts.now()
	prefix := s.opts.namespace.prefix()
	out := make([]*Record, 0)
	for full, rec := range s.records {
		if !strings.HasPrefix(full, prefix) || rec.expired(now) || !match(rec) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(rec *Record) *Record {
	c := *rec
	c.Tags = copyTags(rec.Tags)
	if rec.ExpiresAt != nil {
		expires := *rec.ExpiresAt
		c.ExpiresAt = &expires
	}
	return &c
}

var _ Store = (*MemoryStore)(nil)
