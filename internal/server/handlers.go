package server

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"discogs_configured": s.discogsReady(),
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Get(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user.Profile())
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := DecodeJSON(w, r, &update); err != nil {
		s.writeErr(w, r, err)
		return
	}

	user, err := s.Users.UpdateProfile(r.Context(), identity(r).UserID, update)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user.Profile())
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	start, err := s.Handshake.Begin(r.Context(), r.URL.Query().Get("callback_url"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, start)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	var body models.OAuthCallback
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}

	cred, err := s.Handshake.Connect(r.Context(), body.OAuthVerifier, body.State)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	user, err := s.Users.SetCredential(r.Context(), identity(r).UserID, cred, time.Now())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.logger.Info("discogs account connected", "user_id", user.ID, "discogs_username", cred.Username)
	WriteJSON(w, http.StatusOK, user.Profile())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.ClearCredential(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user.Profile())
}

// credential loads the caller's Discogs credential, failing with [shared.ErrNotConnected] when there is none.
func (s *Server) credential(ctx context.Context, userID string) (models.RemoteCredential, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return models.RemoteCredential{}, err
	}
	if !user.Connected() {
		return models.RemoteCredential{}, shared.ErrNotConnected
	}
	return *user.Credential, nil
}
