// Package store provides SQLite-backed durable storage for verification runs.
//
// The store implements an append-only log with:
//   - Runs: one record per scenario verification (verdict and error summaries)
//   - Run Events: the observed signal trace of each run
//
// # Critical Patterns
//
// Idempotent Writes:
//   - Runs are keyed by ID; writing the same run twice is a no-op
//
// Logical Ordering:
//   - Runs are stamped with a store-assigned seq, NEVER timestamps
//   - All queries order by: ORDER BY seq ASC, id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second wait for locks
//   - foreign_keys=ON: Enforce referential integrity
package store
