// Package memory is long-term agent memory: records addressed by key,
// carrying a priority, tags, an optional TTL and access metadata.
//
// Keys are scoped by agent namespace; with WithNamespace("planner") the
// key "idea" is stored as "planner:idea" and List and Search only see the
// planner's records.
//
// Content that is not a string, number or boolean is stored as JSON;
// Record.Value decodes it back.
//
// Two stores implement Store:
//   - SQLiteStore, on modernc.org/sqlite (driver "sqlite", pure Go) or
//     github.com/mattn/go-sqlite3 (driver "sqlite3", cgo)
//   - MemoryStore, a map for tests and ephemeral runs
//
// Update changes content in place with a single UPDATE statement, so
// priority, tags and access counts are never lost to a concurrent writer.
// Pruner deletes expired records on a cron schedule.
package memory
