package models

import (
	"slices"
	"strings"
	"time"
)

// UnknownArtist is used when a Discogs item carries no artist names.
const UnknownArtist = "Unknown Artist"

// Release is a normalized Discogs collection instance owned by one user.
//
// Identity for matching is (UserID, DiscogsInstanceID); a user may hold the same
// DiscogsReleaseID under several instances.
type Release struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	DiscogsReleaseID  int64          `json:"discogs_release_id"`
	DiscogsInstanceID int64          `json:"discogs_instance_id"`
	DiscogsFolderID   int64          `json:"discogs_folder_id"`
	Title             string         `json:"title"`
	ArtistName        string         `json:"artist_name"`
	Year              *int           `json:"year"`
	CoverImageURL     *string        `json:"cover_image_url"`
	Format            *string        `json:"format"`
	Genres            []string       `json:"genres"`
	Styles            []string       `json:"styles"`
	Labels            []string       `json:"labels"`
	CatalogNumber     *string        `json:"catalog_number"`
	Country           *string        `json:"country"`
	Metadata          map[string]any `json:"discogs_metadata,omitempty"`
	AddedAt           *time.Time     `json:"added_to_discogs_at"`
	SyncedAt          time.Time      `json:"synced_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ReleaseSortColumns lists the columns a collection listing may be ordered by.
var ReleaseSortColumns = []string{"artist_name", "title", "year", "added_to_discogs_at", "created_at", "synced_at"}

// ReleaseQuery holds the GET /collection listing parameters.
type ReleaseQuery struct {
	Pagination
	SortBy    string
	SortOrder string
	Search    string
}

// Normalize fills in defaults for empty values.
func (q *ReleaseQuery) Normalize() {
	q.Pagination.Normalize()
	if q.SortBy == "" {
		q.SortBy = "artist_name"
	}
	q.SortOrder = strings.ToLower(q.SortOrder)
	if q.SortOrder == "" {
		q.SortOrder = "asc"
	}
	q.Search = strings.TrimSpace(q.Search)
}

func (q ReleaseQuery) Validate() error {
	if err := q.Pagination.Validate(); err != nil {
		return err
	}
	if !slices.Contains(ReleaseSortColumns, q.SortBy) {
		return invalid("sort_by must be one of %s", strings.Join(ReleaseSortColumns, ", "))
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		return invalid("sort_order must be asc or desc")
	}
	return nil
}

// CollectionAdd is the POST /collection payload.
type CollectionAdd struct {
	DiscogsReleaseID int64 `json:"discogs_release_id"`
}

func (c CollectionAdd) Validate() error {
	if c.DiscogsReleaseID <= 0 {
		return invalid("discogs_release_id must be positive")
	}
	return nil
}

// CollectionAdded is returned after a release is added to the Discogs collection.
type CollectionAdded struct {
	DiscogsReleaseID  int64 `json:"discogs_release_id"`
	DiscogsInstanceID int64 `json:"instance_id"`
}
