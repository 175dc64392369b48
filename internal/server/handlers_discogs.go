package server

import (
	"net/http"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() || s.Catalog == nil {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	cred, err := s.credential(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	results, err := s.Catalog.Search(r.Context(), cred, models.SearchQuery{
		Query:   r.URL.Query().Get("q"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

func (s *Server) handleCatalogRelease(w http.ResponseWriter, r *http.Request) {
	if !s.discogsReady() || s.Catalog == nil {
		s.writeErr(w, r, shared.ErrNotConfigured)
		return
	}

	releaseID, err := pathInt64(r, "release_id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	cred, err := s.credential(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	detail, err := s.Catalog.Release(r.Context(), cred, releaseID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}
