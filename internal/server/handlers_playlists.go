package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/models"
)

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body models.PlaylistCreate
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}

	pl, err := s.Playlists.Create(r.Context(), identity(r).UserID, body)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	result, err := s.Playlists.List(r.Context(), identity(r).UserID, models.Pagination{Page: page, PageSize: pageSize})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// PlaylistWithTracks loads a playlist owned by userID together with its ordered tracks and total duration.
func PlaylistWithTracks(ctx context.Context, deps Deps, userID, id string) (*models.PlaylistWithTracks, error) {
	pl, err := deps.Playlists.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tracks, err := deps.Tracks.List(ctx, id)
	if err != nil {
		return nil, err
	}

	pl.TrackCount = len(tracks)
	return &models.PlaylistWithTracks{
		Playlist:      *pl,
		Tracks:        tracks,
		TotalDuration: formatter.TotalDuration(tracks),
	}, nil
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, err := PlaylistWithTracks(r.Context(), s.Deps, identity(r).UserID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pl)
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body models.PlaylistUpdate
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}

	pl, err := s.Playlists.Update(r.Context(), identity(r).UserID, r.PathValue("id"), body)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pl)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.Playlists.Delete(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var body models.PlaylistTrackCreate
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}

	userID, playlistID := identity(r).UserID, r.PathValue("id")
	if _, err := s.Playlists.Get(r.Context(), userID, playlistID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	track, err := s.Tracks.Add(r.Context(), playlistID, body)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.touch(r.Context(), userID, playlistID)
	WriteJSON(w, http.StatusCreated, track)
}

func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	userID, playlistID := identity(r).UserID, r.PathValue("id")
	if _, err := s.Playlists.Get(r.Context(), userID, playlistID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.Tracks.Remove(r.Context(), playlistID, r.PathValue("track_id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.touch(r.Context(), userID, playlistID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderTracks(w http.ResponseWriter, r *http.Request) {
	var body models.TrackReorder
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}

	userID, playlistID := identity(r).UserID, r.PathValue("id")
	if _, err := s.Playlists.Get(r.Context(), userID, playlistID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if _, err := s.Tracks.Reorder(r.Context(), playlistID, body.TrackIDs); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.touch(r.Context(), userID, playlistID)

	pl, err := PlaylistWithTracks(r.Context(), s.Deps, userID, playlistID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pl)
}

func (s *Server) handleExportPlaylist(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	pl, err := PlaylistWithTracks(r.Context(), s.Deps, identity(r).UserID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	data, err := formatter.Export(pl, format)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, pl.ID, format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// touch bumps the playlist's updated_at. Failures are logged only.
func (s *Server) touch(ctx context.Context, userID, playlistID string) {
	if err := s.Playlists.Touch(ctx, userID, playlistID); err != nil {
		s.logger.Warn("failed to touch playlist", "playlist_id", playlistID, "err", err)
	}
}
