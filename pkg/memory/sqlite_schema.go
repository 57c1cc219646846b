package memory

// SchemaVersion is the current memory schema version.
const SchemaVersion = 1

// Schema creates the memory tables. Times are Unix nanoseconds so both
// drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    key TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'normal',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL,
    access_count INTEGER NOT NULL DEFAULT 0,
    expires_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_memories_priority ON memories(priority);
CREATE INDEX IF NOT EXISTS idx_memories_expires_at ON memories(expires_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version`

const selectColumns = `id, key, content, priority, tags, created_at, updated_at, last_accessed, access_count, expires_at`

// liveClause matches records that have not expired at the bound time.
const liveClause = `(expires_at IS NULL OR expires_at > ?)`
