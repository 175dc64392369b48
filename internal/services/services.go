// package services implements the signed Discogs HTTP client
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/bookshelf/internal/models"
)

// Discogs is the remote surface used by sync, catalog lookups and collection edits.
//
// Every operation is signed with the user's OAuth 1.0a access pair.
type Discogs interface {
	// Identity returns the username the access pair belongs to.
	Identity(ctx context.Context, cred models.RemoteCredential) (string, error)

	// CollectionPage returns one page of the "All" folder for cred.Username.
	CollectionPage(ctx context.Context, cred models.RemoteCredential, page int) (*CollectionPage, error)

	// Release fetches the full release object as generic JSON.
	Release(ctx context.Context, cred models.RemoteCredential, releaseID int64) (map[string]any, error)

	// Search runs a release search against the Discogs database.
	Search(ctx context.Context, cred models.RemoteCredential, q models.SearchQuery) (*SearchResponse, error)

	// AddToCollection adds a release to the Uncategorized folder and returns the new instance id.
	AddToCollection(ctx context.Context, cred models.RemoteCredential, releaseID int64) (int64, error)

	// RemoveFromCollection deletes one collection instance.
	RemoveFromCollection(ctx context.Context, cred models.RemoteCredential, folderID, releaseID, instanceID int64) error
}

// Pagination is the pagination block Discogs attaches to list responses.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// Last reports whether p is the final page.
func (p Pagination) Last() bool {
	return p.Page >= p.Pages
}

// CollectionPage is one page of collection items. Items are kept as generic JSON
// so that normalization can branch on field presence.
type CollectionPage struct {
	Pagination Pagination       `json:"pagination"`
	Releases   []map[string]any `json:"releases"`
}

// SearchResult is a raw database search hit.
type SearchResult struct {
	ID         int64    `json:"id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Country    string   `json:"country"`
	Format     []string `json:"format"`
	Label      []string `json:"label"`
	Genre      []string `json:"genre"`
	Style      []string `json:"style"`
	CoverImage string   `json:"cover_image"`
	Thumb      string   `json:"thumb"`
}

// SearchResponse is one page of raw search hits.
type SearchResponse struct {
	Pagination Pagination     `json:"pagination"`
	Results    []SearchResult `json:"results"`
}

// StatusError is a non-2xx response from Discogs.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}
