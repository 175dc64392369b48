// Package models defines the domain records and request payloads for the Bookshelf service.
//
// The package contains three categories of types:
//
// 1. Persistent records stored in SQLite
//   - [User] : local account with the Discogs [RemoteCredential] attached after OAuth
//   - [Release] : one Discogs collection instance mirrored locally
//   - [Playlist] and [PlaylistTrack] : user-curated lists of denormalized track snapshots
//
// 2. Views over Discogs data that are never persisted as-is
//   - [ReleaseDetail] : normalized release with tracklist, labels and formats
//   - [SearchResults] : one page of database search results
//
// 3. Request payloads implementing [Validator], checked before any store or remote call.
//
// [SyncSummary] and [Page] are the results of collection sync and paginated listing.
package models
