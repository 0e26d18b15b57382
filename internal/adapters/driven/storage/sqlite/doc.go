// Package sqlite provides a SQLite-based implementation of the ReportStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. The run catalog lives in four tables:
//
//   - runs: One row per completed processing run with its counters
//   - addresses: The ordered unique address list of each run
//   - address_sources: Per-address provenance records in discovery order
//   - near_duplicates: Flagged pairs with their review resolutions
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.mailsift/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
