// Package media defines the shared data model for the inventory: files with
// their probed facts and parsed names, duplicate groups and members, staged
// deletions, and scan audit records.
//
// Treat this package as the single source of truth for entity semantics; when
// you add fields, update store/schema.sql alongside.
package media
