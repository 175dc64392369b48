// Package tasks mirrors a user's Discogs collection into the local store with progress reporting.
//
// # Pipeline
//
//  1. [CollectionReader.FetchAll] : pages through folder 0 and normalizes each item
//     - Uses the inline basic_information block when present (no extra request)
//     - Otherwise fetches the full release and takes country from it
//     - An item that fails either path is logged, counted as skipped and left out
//     - A failure to list a page aborts the sync with shared.ErrCollectionFetch
//
//  2. [Reconciler.Apply] : diffs the fetched set against the local instance index
//     - Upserts on (user_id, discogs_instance_id) in batches of [BatchSize]
//     - Classifies added/updated against the index read before the first write
//     - Deletes rows whose instance id was not fetched
//
//  3. [SyncEngine.Sync] : loads the credential, runs both steps and returns a models.SyncSummary
//
// # Normalization
//
// [NormalizeItem] works on generic JSON maps and branches only on field presence. Field rules
// live in [ArtistName], [CoverImage], [FormatString], [Year] and [CatalogNumber].
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default so a
// slow or absent reader never blocks a sync.
//
// # Concurrency
//
// Syncs for one user id are serialized with an in-process keyed mutex. Deployments running more
// than one process need external serialization.
package tasks
