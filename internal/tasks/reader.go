package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// maxCollectionPages bounds pagination in case the remote reports an inconsistent page count.
const maxCollectionPages = 10_000

// CollectionSource is the part of [services.Discogs] the reader needs.
type CollectionSource interface {
	CollectionPage(ctx context.Context, cred models.RemoteCredential, page int) (*services.CollectionPage, error)
	Release(ctx context.Context, cred models.RemoteCredential, releaseID int64) (map[string]any, error)
}

// FetchResult is the normalized collection plus the number of items that could not be extracted.
type FetchResult struct {
	Releases []models.Release
	Skipped  int
}

// CollectionReader pulls every item from the "All" folder and normalizes it.
type CollectionReader struct {
	source CollectionSource
	logger *log.Logger
	now    func() time.Time
}

// NewCollectionReader creates a [CollectionReader].
func NewCollectionReader(source CollectionSource, logger *log.Logger) *CollectionReader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CollectionReader{source: source, logger: logger, now: time.Now}
}

// FetchAll walks every collection page.
//
// Listing failures are fatal and wrap [shared.ErrCollectionFetch]. An item that cannot be
// normalized, including one whose release fetch fails, is logged and counted in Skipped.
func (r *CollectionReader) FetchAll(ctx context.Context, cred models.RemoteCredential, progress chan<- ProgressUpdate) (*FetchResult, error) {
	result := &FetchResult{Releases: []models.Release{}}
	syncedAt := r.now().UTC()
	index := 0

	for page := 1; page <= maxCollectionPages; page++ {
		sendProgress(progress, fetchPageUpdate(page, 0))

		resp, err := r.source.CollectionPage(ctx, cred, page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", shared.ErrCollectionFetch, page, err)
		}
		sendProgress(progress, fetchPageUpdate(page, resp.Pagination.Pages))

		for _, item := range resp.Releases {
			index++
			rel, err := r.extract(ctx, cred, item, syncedAt, progress)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %v", shared.ErrCollectionFetch, ctx.Err())
				}
				r.logger.Warn("skipping collection item", "index", index, "instance_id", item["instance_id"], "error", err)
				sendProgress(progress, skipItemUpdate(index, err))
				result.Skipped++
				continue
			}
			result.Releases = append(result.Releases, *rel)
		}

		if len(resp.Releases) == 0 || resp.Pagination.Last() {
			break
		}
	}

	if result.Skipped > 0 {
		r.logger.Info("skipped releases due to extraction errors", "skipped", result.Skipped)
	}
	return result, nil
}

// extract prefers the inline summary and falls back to fetching the full release.
func (r *CollectionReader) extract(
	ctx context.Context, cred models.RemoteCredential, item map[string]any, syncedAt time.Time, progress chan<- ProgressUpdate,
) (*models.Release, error) {
	if HasBasicInformation(item) {
		return NormalizeItem(item, nil, syncedAt)
	}

	releaseID, ok := toInt64(item["id"])
	if !ok || releaseID <= 0 {
		return nil, errMissingReleaseID
	}
	instanceID, _ := toInt64(item["instance_id"])
	sendProgress(progress, fetchReleaseUpdate(instanceID, releaseID))

	detail, err := r.source.Release(ctx, cred, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release %d: %w", releaseID, err)
	}
	return NormalizeItem(item, detail, syncedAt)
}
