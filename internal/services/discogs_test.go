package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

var testCred = models.RemoteCredential{Token: "access-token", Secret: "access-secret", Username: "crate digger"}

func newTestService(t *testing.T, handler http.HandlerFunc) (*DiscogsService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewDiscogsService(shared.DiscogsConfig{
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		UserAgent:      "BookshelfTest/1.0",
		BaseURL:        srv.URL,
		AuthorizeURL:   srv.URL + "/oauth/authorize",
		RequestTimeout: 5 * time.Second,
	}, nil)
	return svc, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestDiscogsService(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			svc := NewDiscogsService(shared.DiscogsConfig{}, nil)

			assert.Equal(t, discogsBaseURL, svc.baseURL)
			assert.Equal(t, discogsAuthorizeURL, svc.config.Endpoint.AuthorizeURL)
			assert.Equal(t, defaultTimeout, svc.timeout)
			assert.Equal(t, discogsBaseURL+"/oauth/request_token", svc.config.Endpoint.RequestTokenURL)
		})

		t.Run("Trailing Slash", func(t *testing.T) {
			svc := NewDiscogsService(shared.DiscogsConfig{BaseURL: "http://example.com/"}, nil)
			assert.Equal(t, "http://example.com", svc.baseURL)
		})
	})

	t.Run("OAuth Endpoints", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "BookshelfTest/1.0", r.Header.Get("User-Agent"))
			auth := r.Header.Get("Authorization")
			assert.True(t, strings.HasPrefix(auth, "OAuth "), "expected OAuth header, got %q", auth)
			assert.Contains(t, auth, `oauth_consumer_key="consumer-key"`)

			switch r.URL.Path {
			case "/oauth/request_token":
				assert.Contains(t, auth, "oauth_callback=")
				w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
				w.Write([]byte("oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true"))
			case "/oauth/access_token":
				assert.Contains(t, auth, `oauth_verifier="the-verifier"`)
				assert.Contains(t, auth, `oauth_token="req-token"`)
				w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
				w.Write([]byte("oauth_token=access-token&oauth_token_secret=access-secret"))
			default:
				http.NotFound(w, r)
			}
		})

		tok, sec, err := svc.RequestToken(ctx, "http://localhost:3000/callback")
		require.NoError(t, err)
		assert.Equal(t, "req-token", tok)
		assert.Equal(t, "req-secret", sec)

		authURL, err := svc.AuthorizationURL(tok)
		require.NoError(t, err)
		assert.Contains(t, authURL, "/oauth/authorize?oauth_token=req-token")

		tok, sec, err = svc.AccessToken(ctx, "req-token", "req-secret", "the-verifier")
		require.NoError(t, err)
		assert.Equal(t, "access-token", tok)
		assert.Equal(t, "access-secret", sec)
	})

	t.Run("Request Token Rejected", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid consumer.", http.StatusUnauthorized)
		})

		_, _, err := svc.RequestToken(ctx, "")
		assert.Error(t, err)
	})

	t.Run("Identity", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/identity", r.URL.Path)
			assert.Contains(t, r.Header.Get("Authorization"), `oauth_token="access-token"`)
			assert.Equal(t, discogsAccept, r.Header.Get("Accept"))
			writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "username": "crate digger"})
		})

		username, err := svc.Identity(ctx, testCred)
		require.NoError(t, err)
		assert.Equal(t, "crate digger", username)
	})

	t.Run("Missing Credential", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := svc.Identity(ctx, models.RemoteCredential{})
		assert.ErrorIs(t, err, shared.ErrNotConnected)

		_, err = svc.CollectionPage(ctx, models.RemoteCredential{Token: "a", Secret: "b"}, 1)
		assert.ErrorIs(t, err, shared.ErrNotConnected)
	})

	t.Run("CollectionPage", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/crate digger/collection/folders/0/releases", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"pagination": map[string]any{"page": 2, "pages": 2, "per_page": 100, "items": 101},
				"releases": []map[string]any{
					{"id": 10, "instance_id": 1001, "folder_id": 1, "basic_information": map[string]any{"id": 10, "title": "Blue Train"}},
				},
			})
		})

		page, err := svc.CollectionPage(ctx, testCred, 2)
		require.NoError(t, err)
		assert.True(t, page.Pagination.Last())
		assert.Equal(t, 101, page.Pagination.Items)
		require.Len(t, page.Releases, 1)
		assert.EqualValues(t, 1001, page.Releases[0]["instance_id"])
	})

	t.Run("Release", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/releases/404" {
				writeJSON(t, w, http.StatusNotFound, map[string]any{"message": "Release not found."})
				return
			}
			assert.Equal(t, "/releases/249504", r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]any{"id": 249504, "title": "Never Gonna Give You Up", "country": "UK"})
		})

		rel, err := svc.Release(ctx, testCred, 249504)
		require.NoError(t, err)
		assert.Equal(t, "UK", rel["country"])

		_, err = svc.Release(ctx, testCred, 404)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.True(t, IsStatus(err, http.StatusNotFound))
		assert.Contains(t, err.Error(), "Release not found.")
	})

	t.Run("Search", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "/database/search", r.URL.Path)
			assert.Equal(t, "nirvana", q.Get("q"))
			assert.Equal(t, "release", q.Get("type"))
			assert.Equal(t, "3", q.Get("page"))
			assert.Equal(t, "5", q.Get("per_page"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"pagination": map[string]any{"page": 3, "pages": 9, "per_page": 5, "items": 44},
				"results": []map[string]any{
					{"id": 7, "type": "release", "title": "Nirvana - Nevermind", "year": "1991", "format": []string{"Vinyl", "LP"}, "label": []string{"DGC"}},
				},
			})
		})

		res, err := svc.Search(ctx, testCred, models.SearchQuery{Query: "nirvana", Page: 3, PerPage: 5})
		require.NoError(t, err)
		assert.Equal(t, 9, res.Pagination.Pages)
		require.Len(t, res.Results, 1)
		assert.Equal(t, []string{"Vinyl", "LP"}, res.Results[0].Format)
		assert.Equal(t, "1991", res.Results[0].Year)
	})

	t.Run("AddToCollection", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/users/crate digger/collection/folders/1/releases/42", r.URL.Path)
			writeJSON(t, w, http.StatusCreated, map[string]any{"instance_id": 9001, "resource_url": "x"})
		})

		id, err := svc.AddToCollection(ctx, testCred, 42)
		require.NoError(t, err)
		assert.EqualValues(t, 9001, id)
	})

	t.Run("RemoveFromCollection", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/users/crate digger/collection/folders/1/releases/42/instances/9001", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, svc.RemoveFromCollection(ctx, testCred, 0, 42, 9001))
	})

	t.Run("Server Error", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		})

		_, err := svc.Identity(ctx, testCred)
		assert.ErrorIs(t, err, shared.ErrRemoteAPI)
		assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		})

		_, err := svc.Release(ctx, testCred, 1)
		assert.ErrorIs(t, err, shared.ErrRemoteAPI)
	})

	t.Run("Context Canceled", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{})
		})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Identity(cctx, testCred)
		assert.ErrorIs(t, err, shared.ErrRemoteAPI)
	})
}
