// Package library keeps the SQLite catalog of finished captures.
//
// Every artifact the capture pipeline writes is recorded with its session id,
// format, size, duration and the preset that was on screen, so the CLI can
// list recent captures and show their details long after the performance.
// The schema is created on first open and versioned; a mismatched version is
// reported as ErrSchemaMismatch rather than migrated.
package library
