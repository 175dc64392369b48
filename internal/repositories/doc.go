// Package repositories implements SQLite persistence for users, collection releases and playlists.
//
// Each repository wraps a [*sql.DB] and scopes every query by owner, so a row belonging to
// another user is reported as not found rather than leaked.
//
// Key Implementations:
//   - [UserRepository] : user profiles and the stored Discogs credential
//   - [ReleaseRepository] : collection rows keyed by (user_id, discogs_instance_id), batched upserts
//   - [PlaylistRepository] : playlist metadata with track counts
//   - [PlaylistTrackRepository] : ordered track snapshots with rank reassignment
//
// List-valued columns (genres, styles, labels, tags) are stored as JSON text.
package repositories
