// Package sqlite provides the durable SQLite implementation of the
// leadscout driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, accessed through jmoiron/sqlx. A single database file
// backs several port interfaces:
//
//   - LedgerStore: company keys, source checks and daily counters
//   - RotationStore: query history, rotation cursors and source health
//   - SchedulerStore: housekeeping task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory ("NNN_name.up.sql").
//
// # Data Location
//
// By default, the database is stored at ~/.leadscout/data/leadscout.db
//
// # Concurrency
//
// Writes run in IMMEDIATE transactions so that overlapping processes
// serialise on the database lock. The daily admission counter is updated
// with a conditional statement that refuses to pass the cap.
package sqlite
