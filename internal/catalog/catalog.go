// Package catalog serves Discogs database search and release detail lookups through DetailCache.
//
// Both lookups return catalog data that is the same for every user, so cache keys carry only the
// query parameters. The caller's credential is used for the remote request on a miss.
package catalog

import (
	"context"
	"strings"

	"github.com/desertthunder/bookshelf/internal/cache"
	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Source is the part of [services.Discogs] the catalog reads from.
type Source interface {
	Release(ctx context.Context, cred models.RemoteCredential, releaseID int64) (map[string]any, error)
	Search(ctx context.Context, cred models.RemoteCredential, q models.SearchQuery) (*services.SearchResponse, error)
}

type searchKey struct {
	query   string
	page    int
	perPage int
}

// Catalog caches search pages and normalized release details.
type Catalog struct {
	source   Source
	searches *cache.DetailCache[searchKey, *models.SearchResults]
	releases *cache.DetailCache[int64, *models.ReleaseDetail]
}

// New creates a [Catalog] using the TTLs and capacities from cfg.
func New(source Source, cfg shared.CacheConfig) *Catalog {
	return &Catalog{
		source:   source,
		searches: cache.New[searchKey, *models.SearchResults]("search", cfg.SearchSize, cfg.SearchTTL),
		releases: cache.New[int64, *models.ReleaseDetail]("release", cfg.ReleaseSize, cfg.ReleaseTTL),
	}
}

// Search returns one page of release search results.
func (c *Catalog) Search(ctx context.Context, cred models.RemoteCredential, q models.SearchQuery) (*models.SearchResults, error) {
	q.Query = strings.TrimSpace(q.Query)
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := searchKey{query: q.Query, page: q.Page, perPage: q.PerPage}
	results, _, err := c.searches.GetOrCompute(ctx, key, func(ctx context.Context) (*models.SearchResults, error) {
		resp, err := c.source.Search(ctx, cred, q)
		if err != nil {
			return nil, err
		}
		return NormalizeSearch(resp, q), nil
	})
	return results, err
}

// Release returns the normalized detail for a Discogs release id.
func (c *Catalog) Release(ctx context.Context, cred models.RemoteCredential, releaseID int64) (*models.ReleaseDetail, error) {
	if releaseID <= 0 {
		return nil, shared.ErrInvalidInput
	}

	detail, _, err := c.releases.GetOrCompute(ctx, releaseID, func(ctx context.Context) (*models.ReleaseDetail, error) {
		raw, err := c.source.Release(ctx, cred, releaseID)
		if err != nil {
			return nil, err
		}
		return NormalizeRelease(raw)
	})
	return detail, err
}
