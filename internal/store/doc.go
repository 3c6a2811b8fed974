// Package store persists the dispatch journal in SQLite.
//
// Every routed event becomes one row in dispatch_records. The journal is
// append-only and content-addressed: a record's primary key is
// dispatch.Record.ID, so writing the same record twice is a no-op.
//
// # Ordering
//
// All ordering uses the seq column (the dispatcher's logical clock), never
// timestamps. Queries sort by seq ASC, id ASC COLLATE BINARY so reads are
// identical across runs.
//
// # Database Configuration
//
//   - WAL mode: the trace command can read while a run writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - one open connection: SQLite has a single writer
package store
