// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// BasicItem builds a collection item carrying an inline basic_information block.
func BasicItem(instanceID, releaseID int64, title string, artists ...string) map[string]any {
	names := make([]any, 0, len(artists))
	for _, a := range artists {
		names = append(names, map[string]any{"name": a})
	}
	return map[string]any{
		"id":          float64(releaseID),
		"instance_id": float64(instanceID),
		"folder_id":   float64(1),
		"date_added":  "2024-05-01T10:00:00-07:00",
		"basic_information": map[string]any{
			"id":          float64(releaseID),
			"title":       title,
			"year":        float64(1999),
			"artists":     names,
			"formats":     []any{map[string]any{"name": "Vinyl", "qty": "1"}},
			"labels":      []any{map[string]any{"name": "Label", "catno": "CAT-1"}},
			"genres":      []any{"Jazz"},
			"styles":      []any{"Hard Bop"},
			"cover_image": fmt.Sprintf("https://img.example.com/%d.jpg", releaseID),
		},
	}
}

// BareItem builds a collection item without basic_information, forcing a release fetch.
func BareItem(instanceID, releaseID int64) map[string]any {
	return map[string]any{
		"id":          float64(releaseID),
		"instance_id": float64(instanceID),
		"folder_id":   float64(1),
	}
}

// ReleaseDetail builds a full release object as /releases/{id} returns it.
func ReleaseDetail(releaseID int64, title, country string) map[string]any {
	return map[string]any{
		"id":      float64(releaseID),
		"title":   title,
		"year":    float64(2001),
		"country": country,
		"artists": []any{map[string]any{"name": "Detail Artist"}},
		"images": []any{
			map[string]any{"type": "secondary", "uri": "https://img.example.com/secondary.jpg"},
			map[string]any{"type": "primary", "uri": "https://img.example.com/primary.jpg"},
		},
		"formats": []any{map[string]any{"name": "CD", "qty": "2"}},
		"labels":  []any{map[string]any{"name": "Detail Label", "catno": "none", "entity_type_name": "Label"}},
		"genres":  []any{"Rock"},
		"styles":  []any{"Indie Rock"},
		"notes":   "Recorded live.",
		"tracklist": []any{
			map[string]any{"position": "A1", "title": "Opener", "duration": "3:45", "type_": "track"},
			map[string]any{"position": "", "title": "Side B", "duration": "", "type_": "heading"},
			map[string]any{
				"position": "B1", "title": "Closer", "duration": "1:02:03", "type_": "track",
				"artists": []any{map[string]any{"name": "Guest"}},
			},
		},
	}
}

// FakeDiscogs is an in-memory test double for [services.Discogs] and the OAuth provider.
//
// Errors keyed by operation name ("request_token", "access_token", "identity", "collection",
// "release", "search", "add", "remove") are returned instead of the normal result.
type FakeDiscogs struct {
	mu sync.Mutex

	Username  string
	Items     []map[string]any
	PerPage   int
	Releases  map[int64]map[string]any
	SearchHit []services.SearchResult
	Errors    map[string]error

	Calls          map[string]int
	CallbackURL    string
	NextInstanceID int64
	Removed        [][3]int64
	LastCredential models.RemoteCredential
}

// NewFakeDiscogs returns a fake with no items and username "tester".
func NewFakeDiscogs() *FakeDiscogs {
	return &FakeDiscogs{
		Username:       "tester",
		Releases:       map[int64]map[string]any{},
		Errors:         map[string]error{},
		Calls:          map[string]int{},
		NextInstanceID: 5000,
	}
}

// SetItems replaces the remote collection.
func (f *FakeDiscogs) SetItems(items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Items = items
}

// LastCallbackURL returns the callback passed to the most recent RequestToken.
func (f *FakeDiscogs) LastCallbackURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CallbackURL
}

// CallCount returns how many times op was invoked.
func (f *FakeDiscogs) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *FakeDiscogs) record(op string, cred *models.RemoteCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[op]++
	if cred != nil {
		f.LastCredential = *cred
	}
	return f.Errors[op]
}

func (f *FakeDiscogs) RequestToken(_ context.Context, callbackURL string) (string, string, error) {
	if err := f.record("request_token", nil); err != nil {
		return "", "", err
	}
	f.mu.Lock()
	f.CallbackURL = callbackURL
	f.mu.Unlock()
	return "fake-request-token", "fake-request-secret", nil
}

func (f *FakeDiscogs) AuthorizationURL(requestToken string) (string, error) {
	return "https://www.discogs.com/oauth/authorize?oauth_token=" + requestToken, nil
}

func (f *FakeDiscogs) AccessToken(_ context.Context, requestToken, requestSecret, verifier string) (string, string, error) {
	if err := f.record("access_token", nil); err != nil {
		return "", "", err
	}
	if requestToken != "fake-request-token" || requestSecret != "fake-request-secret" {
		return "", "", errors.New("unknown request token")
	}
	return "fake-access-token", "fake-access-secret", nil
}

func (f *FakeDiscogs) Identity(_ context.Context, cred models.RemoteCredential) (string, error) {
	if err := f.record("identity", &cred); err != nil {
		return "", err
	}
	return f.Username, nil
}

func (f *FakeDiscogs) CollectionPage(_ context.Context, cred models.RemoteCredential, page int) (*services.CollectionPage, error) {
	if err := f.record("collection", &cred); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = services.CollectionPerPage
	}
	pages := max((len(f.Items)+perPage-1)/perPage, 1)
	start := min((page-1)*perPage, len(f.Items))
	end := min(start+perPage, len(f.Items))

	return &services.CollectionPage{
		Pagination: services.Pagination{Page: page, Pages: pages, PerPage: perPage, Items: len(f.Items)},
		Releases:   append([]map[string]any(nil), f.Items[start:end]...),
	}, nil
}

func (f *FakeDiscogs) Release(_ context.Context, cred models.RemoteCredential, releaseID int64) (map[string]any, error) {
	if err := f.record("release", &cred); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rel, ok := f.Releases[releaseID]
	if !ok {
		return nil, fmt.Errorf("%w: release %d", shared.ErrNotFound, releaseID)
	}
	return rel, nil
}

func (f *FakeDiscogs) Search(_ context.Context, cred models.RemoteCredential, q models.SearchQuery) (*services.SearchResponse, error) {
	if err := f.record("search", &cred); err != nil {
		return nil, err
	}
	return &services.SearchResponse{
		Pagination: services.Pagination{Page: q.Page, Pages: 1, PerPage: q.PerPage, Items: len(f.SearchHit)},
		Results:    f.SearchHit,
	}, nil
}

func (f *FakeDiscogs) AddToCollection(_ context.Context, cred models.RemoteCredential, releaseID int64) (int64, error) {
	if err := f.record("add", &cred); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.NextInstanceID++
	return f.NextInstanceID, nil
}

func (f *FakeDiscogs) RemoveFromCollection(_ context.Context, cred models.RemoteCredential, folderID, releaseID, instanceID int64) error {
	if err := f.record("remove", &cred); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, [3]int64{folderID, releaseID, instanceID})
	return nil
}

var _ services.Discogs = (*FakeDiscogs)(nil)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MustReadFile returns the file's contents, failing the test on error.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
