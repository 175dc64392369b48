package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Middleware Order", func(t *testing.T) {
		r := NewBasicRouter()
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("Method Mismatch", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/things", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("Path Values", func(t *testing.T) {
		r := NewBasicRouter()
		var got string
		r.Handle(http.MethodGet, "/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got = req.PathValue("id")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
		assert.Equal(t, "abc", got)
	})

	t.Run("Recovery", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(recoveryMiddleware(logger))
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), `"code":500`)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestID(r)
	}))

	t.Run("Propagates Client Value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("Generates When Missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, rr.Header().Get("X-Request-ID"), 36)
		assert.Equal(t, rr.Header().Get("X-Request-ID"), seen)
	})

	t.Run("Replaces Oversized Value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Len(t, rr.Header().Get("X-Request-ID"), 36)
	})
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/playlists", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("Unknown Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Wildcard", func(t *testing.T) {
		h := corsMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrNotConfigured, http.StatusServiceUnavailable},
		{shared.ErrNotConnected, http.StatusBadRequest},
		{shared.ErrInvalidState, http.StatusBadRequest},
		{shared.ErrExpiredState, http.StatusBadRequest},
		{fmt.Errorf("%w: boom", shared.ErrOAuthExchange), http.StatusBadRequest},
		{fmt.Errorf("%w: name", shared.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: boom", shared.ErrAuthorizeFailed), http.StatusInternalServerError},
		{fmt.Errorf("%w: page 1: boom", shared.ErrCollectionFetch), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", shared.ErrRemoteAPI, &services.StatusError{StatusCode: 503}), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", shared.ErrNotFound, &services.StatusError{StatusCode: 404}), http.StatusNotFound},
		{fmt.Errorf("%w: x", shared.ErrPlaylistNotFound), http.StatusNotFound},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: expired", shared.ErrInvalidToken), http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("Too Large", func(t *testing.T) {
		body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		require.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("Malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var p payload
		assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &p), shared.ErrInvalidInput)
	})
}
