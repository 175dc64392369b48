package server

import "net/http"

func (s *Server) registerRoutes(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(s.handleHealth))

	r.Handle(http.MethodGet, "/api/users/me", s.authenticated(s.handleGetMe))
	r.Handle(http.MethodPatch, "/api/users/me", s.authenticated(s.handleUpdateMe))

	r.Handle(http.MethodPost, "/api/oauth/authorize", s.authenticated(s.handleAuthorize))
	r.Handle(http.MethodPost, "/api/oauth/callback", s.authenticated(s.handleCallback))
	r.Handle(http.MethodDelete, "/api/oauth/disconnect", s.authenticated(s.handleDisconnect))

	r.Handle(http.MethodPost, "/api/collection/sync", s.authenticated(s.handleSync))
	r.Handle(http.MethodGet, "/api/collection", s.authenticated(s.handleListCollection))
	r.Handle(http.MethodPost, "/api/collection", s.authenticated(s.handleAddToCollection))
	r.Handle(http.MethodGet, "/api/collection/{id}", s.authenticated(s.handleGetRelease))
	r.Handle(http.MethodDelete, "/api/collection/{id}", s.authenticated(s.handleRemoveFromCollection))
	r.Handle(http.MethodGet, "/api/collection/{id}/tracks", s.authenticated(s.handleReleaseTracks))

	r.Handle(http.MethodGet, "/api/discogs/search", s.authenticated(s.handleSearch))
	r.Handle(http.MethodGet, "/api/discogs/releases/{release_id}", s.authenticated(s.handleCatalogRelease))

	r.Handle(http.MethodPost, "/api/playlists", s.authenticated(s.handleCreatePlaylist))
	r.Handle(http.MethodGet, "/api/playlists", s.authenticated(s.handleListPlaylists))
	r.Handle(http.MethodGet, "/api/playlists/{id}", s.authenticated(s.handleGetPlaylist))
	r.Handle(http.MethodPatch, "/api/playlists/{id}", s.authenticated(s.handleUpdatePlaylist))
	r.Handle(http.MethodDelete, "/api/playlists/{id}", s.authenticated(s.handleDeletePlaylist))
	r.Handle(http.MethodPost, "/api/playlists/{id}/tracks", s.authenticated(s.handleAddTrack))
	r.Handle(http.MethodDelete, "/api/playlists/{id}/tracks/{track_id}", s.authenticated(s.handleRemoveTrack))
	r.Handle(http.MethodPatch, "/api/playlists/{id}/tracks/reorder", s.authenticated(s.handleReorderTracks))
	r.Handle(http.MethodGet, "/api/playlists/{id}/export", s.authenticated(s.handleExportPlaylist))
}
