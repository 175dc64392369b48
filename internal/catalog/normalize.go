package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// NormalizeRelease converts a raw /releases/{id} object into a [models.ReleaseDetail].
func NormalizeRelease(raw map[string]any) (*models.ReleaseDetail, error) {
	id, ok := raw["id"].(float64)
	if !ok || id <= 0 {
		return nil, fmt.Errorf("%w: release has no id", shared.ErrRemoteAPI)
	}

	format, err := tasks.FormatString(raw["formats"])
	if err != nil {
		return nil, err
	}

	artists := names(raw["artists"])
	detail := &models.ReleaseDetail{
		DiscogsReleaseID: int64(id),
		Title:            stringField(raw, "title"),
		ArtistName:       tasks.ArtistName(raw["artists"]),
		Year:             tasks.Year(raw["year"]),
		CoverImageURL:    tasks.CoverImage(raw),
		Country:          optional(stringField(raw, "country")),
		Genres:           stringSlice(raw["genres"]),
		Styles:           stringSlice(raw["styles"]),
		Notes:            optional(stringField(raw, "notes")),
		Tracks:           Tracks(raw["tracklist"], artists),
		Labels:           labels(raw["labels"]),
		Formats:          formats(raw["formats"]),
		FormatString:     format,
		Raw:              raw,
	}
	return detail, nil
}

// Tracks flattens a tracklist. Headings are dropped; tracks without their own artists inherit fallback.
func Tracks(v any, fallback []string) []models.Track {
	if len(fallback) == 0 {
		fallback = []string{models.UnknownArtist}
	}

	tracks := []models.Track{}
	for _, t := range objects(v) {
		if kind := stringField(t, "type_"); kind == "heading" || kind == "index" {
			continue
		}

		artists := names(t["artists"])
		if len(artists) == 0 {
			artists = fallback
		}
		tracks = append(tracks, models.Track{
			Position: stringField(t, "position"),
			Title:    stringField(t, "title"),
			Duration: optional(stringField(t, "duration")),
			Artists:  artists,
		})
	}
	return tracks
}

// NormalizeSearch maps raw search hits to the response shape.
func NormalizeSearch(resp *services.SearchResponse, q models.SearchQuery) *models.SearchResults {
	results := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		cover := r.CoverImage
		if cover == "" {
			cover = r.Thumb
		}
		out := models.SearchResult{
			ID:         r.ID,
			Title:      r.Title,
			Year:       optional(r.Year),
			Format:     optional(strings.Join(r.Format, ", ")),
			CoverImage: optional(cover),
			Thumb:      optional(r.Thumb),
			Country:    optional(r.Country),
			Genre:      nonNil(r.Genre),
			Style:      nonNil(r.Style),
		}
		if len(r.Label) > 0 {
			out.Label = optional(r.Label[0])
		}
		results = append(results, out)
	}

	page := resp.Pagination.Page
	if page == 0 {
		page = q.Page
	}
	perPage := resp.Pagination.PerPage
	if perPage == 0 {
		perPage = q.PerPage
	}
	return &models.SearchResults{
		Results: results,
		Pagination: models.SearchPagination{
			Page:    page,
			Pages:   resp.Pagination.Pages,
			PerPage: perPage,
			Items:   resp.Pagination.Items,
		},
	}
}

func labels(v any) []models.LabelInfo {
	items := objects(v)
	if len(items) == 0 {
		return nil
	}
	out := make([]models.LabelInfo, 0, len(items))
	for _, l := range items {
		out = append(out, models.LabelInfo{
			Name:           stringField(l, "name"),
			CatalogNumber:  stringField(l, "catno"),
			EntityTypeName: stringField(l, "entity_type_name"),
		})
	}
	return out
}

func formats(v any) []models.FormatInfo {
	items := objects(v)
	if len(items) == 0 {
		return nil
	}
	out := make([]models.FormatInfo, 0, len(items))
	for _, f := range items {
		qty := "1"
		switch q := f["qty"].(type) {
		case string:
			if q != "" {
				qty = q
			}
		case float64:
			qty = strconv.FormatFloat(q, 'f', -1, 64)
		}
		out = append(out, models.FormatInfo{
			Name:         stringField(f, "name"),
			Qty:          qty,
			Descriptions: stringSlice(f["descriptions"]),
		})
	}
	return out
}

func names(v any) []string {
	out := []string{}
	for _, a := range objects(v) {
		if n := stringField(a, "name"); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringSlice(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
