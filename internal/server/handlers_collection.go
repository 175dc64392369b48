package server

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

const detailPersistTimeout = 10 * time.Second

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() || s.Sync == nil {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	summary, err := s.Sync.Sync(r.Context(), identity(r).UserID, nil)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListCollection(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	result, err := s.Releases.List(r.Context(), identity(r).UserID, models.ReleaseQuery{
		Pagination: models.Pagination{Page: page, PageSize: pageSize},
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Search:     q.Get("search"),
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRelease(w http.ResponseWriter, r *http.Request) {
	rel, err := s.Releases.Get(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rel)
}

// handleReleaseTracks serves the remote tracklist for a local release and writes the fetched
// country and metadata back onto the row without waiting for it.
func (s *Server) handleReleaseTracks(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() || s.Catalog == nil {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	userID := identity(r).UserID
	rel, err := s.Releases.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	cred, err := s.credential(r.Context(), userID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	detail, err := s.Catalog.Release(r.Context(), cred, rel.DiscogsReleaseID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	go s.persistDetail(context.WithoutCancel(r.Context()), userID, rel.ID, detail)

	WriteJSON(w, http.StatusOK, models.ReleaseTracks{
		ReleaseID:        rel.ID,
		DiscogsReleaseID: rel.DiscogsReleaseID,
		Title:            detail.Title,
		ArtistName:       detail.ArtistName,
		Tracks:           detail.Tracks,
		Notes:            detail.Notes,
		Country:          detail.Country,
		Genres:           detail.Genres,
		Styles:           detail.Styles,
		Labels:           detail.Labels,
		Formats:          detail.Formats,
	})
}

func (s *Server) persistDetail(ctx context.Context, userID, releaseID string, detail *models.ReleaseDetail) {
	ctx, cancel := context.WithTimeout(ctx, detailPersistTimeout)
	defer cancel()

	if err := s.Releases.UpdateDetail(ctx, userID, releaseID, detail.Country, detail.Raw); err != nil {
		s.logger.Warn("failed to persist release detail", "release_id", releaseID, "err", err)
	}
}

func (s *Server) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	var body models.CollectionAdd
	if err := DecodeJSON(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	cred, err := s.credential(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	instanceID, err := s.Discogs.AddToCollection(r.Context(), cred, body.DiscogsReleaseID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, models.CollectionAdded{
		DiscogsReleaseID:  body.DiscogsReleaseID,
		DiscogsInstanceID: instanceID,
	})
}

// handleRemoveFromCollection deletes the remote instance first, then the local row.
func (s *Server) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	userID := identity(r).UserID
	rel, err := s.Releases.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	cred, err := s.credential(r.Context(), userID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.Discogs.RemoveFromCollection(r.Context(), cred, rel.DiscogsFolderID, rel.DiscogsReleaseID, rel.DiscogsInstanceID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.Releases.Delete(r.Context(), userID, rel.ID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
