package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/auth"
	"github.com/desertthunder/bookshelf/internal/catalog"
	"github.com/desertthunder/bookshelf/internal/repositories"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/tasks"
	tu "github.com/desertthunder/bookshelf/internal/testing"
)

const testJWTSecret = "test-jwt-secret"

type testEnv struct {
	srv      *Server
	deps     Deps
	fake     *tu.FakeDiscogs
	verifier *auth.TokenVerifier
}

// newTestEnv builds a server over an in-memory database. With configured set, Discogs
// collaborators are backed by [tu.FakeDiscogs].
func newTestEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()

	cfg := shared.DefaultConfig()
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.ProvisionUsers = true
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	logger := shared.NewLogger(io.Discard)
	db := tu.NewTestDB(t)
	verifier := auth.NewTokenVerifier(testJWTSecret)

	deps := Deps{
		Config:    cfg,
		Logger:    logger,
		Verifier:  verifier,
		Users:     repositories.NewUserRepository(db),
		Releases:  repositories.NewReleaseRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Tracks:    repositories.NewPlaylistTrackRepository(db),
	}

	fake := tu.NewFakeDiscogs()
	if configured {
		cfg.Discogs.ConsumerKey = "key"
		cfg.Discogs.ConsumerSecret = "secret"
		cfg.Discogs.StateEncryptionKey = "state-key"

		codec, err := auth.NewStateCodec(cfg.Discogs.StateEncryptionKey)
		require.NoError(t, err)

		deps.Discogs = fake
		deps.Handshake = auth.NewHandshake(fake, codec)
		deps.Sync = tasks.NewSyncEngine(deps.Users, fake, deps.Releases, logger)
		deps.Catalog = catalog.New(fake, cfg.Cache)
	}

	return &testEnv{srv: New(deps), deps: deps, fake: fake, verifier: verifier}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.verifier.Sign(userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request as userID. An empty userID sends no Authorization header.
func (e *testEnv) do(t *testing.T, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}

	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

// connect runs the authorize and callback routes for userID.
func (e *testEnv) connect(t *testing.T, userID string) {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/api/oauth/authorize?callback_url=http://localhost:3000/cb", nil, userID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var start map[string]string
	decode(t, rr, &start)

	rr = e.do(t, http.MethodPost, "/api/oauth/callback", map[string]string{
		"oauth_verifier": "verifier",
		"state":          start["state"],
	}, userID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	decode(t, rr, &body)
	return body
}
