// Package repositories implements SQLite persistence for generated playlists.
//
// [PlaylistRepository] logs every playlist a generation run creates, complete or partial, and serves the
// history queries used by the CLI and the web API. Records support soft deletes via deleted_at timestamps
// and deleted records are excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
