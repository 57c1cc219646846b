package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQL driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCGO     = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// SQLiteConfig configures a SQLiteStore.
type SQLiteConfig struct {
	// Driver is DriverModernc or DriverCGO.
	// Default: DriverModernc
	Driver string

	// Path is the database file. Parent directories are created.
	Path string

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool.
	// Default: 4
	MaxOpenConns int
}

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	opts   options
}

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig, opts ...Option) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("memory database path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}

	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StoreError{Backend: cfg.Driver, Operation: "open", Cause: err}
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, &StoreError{Backend: cfg.Driver, Operation: "open", Cause: err}
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	o := newOptions(opts)
	o.logger = o.logger.With("component", "memory.sqlite")

	s := &SQLiteStore{db: db, config: cfg, opts: o}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	o.logger.Info("memory store opened",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"namespace", string(o.namespace),
	)
	return s, nil
}

// sqliteDSN sets WAL mode and the busy timeout in each driver's syntax so
// that every pooled connection gets them.
func sqliteDSN(cfg SQLiteConfig) (string, error) {
	ms := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case DriverModernc:
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, ms), nil
	case DriverCGO:
		return fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, ms), nil
	default:
		return "", fmt.Errorf("unsupported memory driver %q", cfg.Driver)
	}
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return s.fail("create_schema", "", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return s.fail("insert_schema_version", "", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return s.fail("get_schema_version", "", err)
	}
	if version != SchemaVersion {
		return s.fail("schema_version_mismatch", "",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

func (s *SQLiteStore) fail(op, key string, err error) error {
	return &StoreError{Backend: s.config.Driver, Operation: op, Key: key, Cause: err}
}

// Put upserts a record. Replacing an existing key resets its metadata and
// keeps its id.
func (s *SQLiteStore) Put(ctx context.Context, key string, content any, opts PutOptions) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("put", err) }()

	if key == "" {
		return ErrEmptyKey
	}
	text, err := EncodeContent(content)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(tagsOrEmpty(opts.Tags))
	if err != nil {
		return err
	}

	now := s.opts.now()
	var expires any
	if opts.TTL > 0 {
		expires = now.Add(opts.TTL).UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (id, key, content, priority, tags, created_at, updated_at, last_accessed, access_count, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (key) DO UPDATE SET
			content = excluded.content,
			priority = excluded.priority,
			tags = excluded.tags,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_accessed = excluded.last_accessed,
			access_count = 0,
			expires_at = excluded.expires_at`,
		uuid.NewString(), s.opts.namespace.full(key), text, NormalizePriority(opts.Priority), string(tags),
		now.UnixNano(), now.UnixNano(), now.UnixNano(), expires,
	)
	if err != nil {
		return s.fail("put", key, err)
	}

	s.opts.logger.DebugContext(ctx, "memory saved", "key", key)
	return nil
}

// Get counts the access and returns the record, in one transaction.
func (s *SQLiteStore) Get(ctx context.Context, key string) (_ *Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("get", err) }()

	if key == "" {
		return nil, ErrEmptyKey
	}

	var rec *Record
	err = s.inTx(ctx, "get", key, func(tx *sql.Tx) error {
		now := s.opts.now().UnixNano()
		res, err := tx.ExecContext(ctx,
			`UPDATE memories SET access_count = access_count + 1, last_accessed = ?
			 WHERE key = ? AND `+liveClause,
			now, s.opts.namespace.full(key), now,
		)
		if err := requireRow(res, err); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM memories WHERE key = ?`, s.opts.namespace.full(key))
		rec, err = s.scan(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update replaces content with a single UPDATE; priority, tags, creation
// time and expiry are untouched.
func (s *SQLiteStore) Update(ctx context.Context, key string, content any) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("update", err) }()

	if key == "" {
		return ErrEmptyKey
	}
	text, err := EncodeContent(content)
	if err != nil {
		return err
	}

	return s.inTx(ctx, "update", key, func(tx *sql.Tx) error {
		now := s.opts.now().UnixNano()
		res, err := tx.ExecContext(ctx,
			`UPDATE memories
			 SET content = ?, updated_at = ?, last_accessed = ?, access_count = access_count + 1
			 WHERE key = ? AND `+liveClause,
			text, now, now, s.opts.namespace.full(key), now,
		)
		return requireRow(res, err)
	})
}

// Delete removes a live record.
func (s *SQLiteStore) Delete(ctx context.Context, key string) (err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("delete", err) }()

	if key == "" {
		return ErrEmptyKey
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE key = ? AND `+liveClause,
		s.opts.namespace.full(key), s.opts.now().UnixNano(),
	)
	if err := requireRow(res, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return s.fail("delete", key, err)
	}
	return nil
}

// List returns the live records matching filter.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) (_ []*Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("list", err) }()

	where := []string{`key LIKE ? ESCAPE '\'`, liveClause}
	args := []any{escapeLike(s.opts.namespace.prefix()) + "%", s.opts.now().UnixNano()}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, NormalizePriority(filter.Priority))
	}
	if filter.Tag != "" {
		// narrow in SQL, confirm exact membership after decoding
		where = append(where, `tags LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(quoteJSON(filter.Tag))+"%")
	}

	records, err := s.query(ctx, "list", where, args, 0)
	if err != nil {
		return nil, err
	}

	out := records[:0]
	for _, rec := range records {
		if filter.Tag == "" || rec.HasTag(filter.Tag) {
			out = append(out, rec)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Search returns live records whose content or tags contain query.
// SQLite's LIKE folds ASCII case only.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) (_ []*Record, err error) {
	defer func() { s.opts.metrics.RecordMemoryOperation("search", err) }()

	pattern := "%" + escapeLike(query) + "%"
	where := []string{
		`key LIKE ? ESCAPE '\'`,
		liveClause,
		`(content LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\')`,
	}
	args := []any{escapeLike(s.opts.namespace.prefix()) + "%", s.opts.now().UnixNano(), pattern, pattern}

	return s.query(ctx, "search", where, args, limit)
}

// PruneExpired deletes expired records across all namespaces.
func (s *SQLiteStore) PruneExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.opts.now().UnixNano(),
	)
	if err != nil {
		return 0, s.fail("prune", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("prune", "", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return s.fail("close", "", err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, op, key string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, key, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return s.fail(op, key, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, key, err)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, op string, where []string, args []any, limit int) ([]*Record, error) {
	q := `SELECT ` + selectColumns + ` FROM memories WHERE ` + strings.Join(where, " AND ") + ` ORDER BY key`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	defer rows.Close()

	out := make([]*Record, 0)
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, s.fail(op, "", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, "", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row scanner) (*Record, error) {
	var (
		rec                            Record
		full, tags                     string
		created, updated, lastAccessed int64
		expires                        sql.NullInt64
	)
	err := row.Scan(&rec.ID, &full, &rec.Content, &rec.Priority, &tags,
		&created, &updated, &lastAccessed, &rec.AccessCount, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Key = s.opts.namespace.strip(full)
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %q: %w", full, err)
	}
	if len(rec.Tags) == 0 {
		rec.Tags = nil
	}
	rec.CreatedAt = time.Unix(0, created)
	rec.UpdatedAt = time.Unix(0, updated)
	rec.LastAccessed = time.Unix(0, lastAccessed)
	if expires.Valid {
		t := time.Unix(0, expires.Int64)
		rec.ExpiresAt = &t
	}
	return &rec, nil
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func quoteJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ Store = (*SQLiteStore)(nil)
