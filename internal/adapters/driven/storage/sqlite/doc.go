// Package sqlite provides SQLite-backed implementations of the IndexStore
// and PaperStore ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share a single database connection:
//
//   - IndexStore: the vector index snapshot, written as a unit in one
//     transaction so a failed save never leaves a partial snapshot
//   - PaperStore: generated papers, kept until they expire
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.edurag/data/edurag.db
package sqlite
