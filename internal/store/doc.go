// Package store persists the media inventory in SQLite and exposes typed
// accessors for files, duplicate groups, staged deletions, and scan history.
//
// The Store manages database connections, schema initialization, and the
// busy-retry discipline needed when the CLI and daemon share one database.
// Timestamps are stored as RFC 3339 text in UTC; language lists as JSON
// arrays. Path uniqueness is enforced only among non-deleted rows so a
// restored or re-ripped file can reuse its old location.
//
// Schema changes bump the version in schema.go; the database is rebuilt from
// a fresh scan rather than migrated.
package store
