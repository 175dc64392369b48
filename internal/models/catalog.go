package models

// Track is one entry of a release tracklist.
type Track struct {
	Position string   `json:"position"`
	Title    string   `json:"title"`
	Duration *string  `json:"duration"`
	Artists  []string `json:"artists"`
}

// LabelInfo is a label credit on a release.
type LabelInfo struct {
	Name           string `json:"name"`
	CatalogNumber  string `json:"catno"`
	EntityTypeName string `json:"entity_type_name"`
}

// FormatInfo is one physical format of a release.
type FormatInfo struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Descriptions []string `json:"descriptions"`
}

// ReleaseDetail is a normalized Discogs release with its tracklist.
//
// Raw holds the unmodified response for persistence back onto collection rows.
type ReleaseDetail struct {
	DiscogsReleaseID int64          `json:"discogs_release_id"`
	Title            string         `json:"title"`
	ArtistName       string         `json:"artist_name"`
	Year             *int           `json:"year"`
	CoverImageURL    *string        `json:"cover_image_url"`
	Country          *string        `json:"country"`
	Genres           []string       `json:"genres"`
	Styles           []string       `json:"styles"`
	Notes            *string        `json:"notes"`
	Tracks           []Track        `json:"tracks"`
	Labels           []LabelInfo    `json:"labels"`
	Formats          []FormatInfo   `json:"formats"`
	FormatString     *string        `json:"format_string"`
	Raw              map[string]any `json:"-"`
}

// ReleaseTracks is the GET /collection/{id}/tracks response.
type ReleaseTracks struct {
	ReleaseID        string       `json:"release_id"`
	DiscogsReleaseID int64        `json:"discogs_release_id"`
	Title            string       `json:"title"`
	ArtistName       string       `json:"artist_name"`
	Tracks           []Track      `json:"tracks"`
	Notes            *string      `json:"notes"`
	Country          *string      `json:"country"`
	Genres           []string     `json:"genres"`
	Styles           []string     `json:"styles"`
	Labels           []LabelInfo  `json:"labels"`
	Formats          []FormatInfo `json:"formats"`
}

// SearchResult is one release returned by a database search.
type SearchResult struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Year       *string  `json:"year"`
	Format     *string  `json:"format"`
	Label      *string  `json:"label"`
	CoverImage *string  `json:"cover_image"`
	Thumb      *string  `json:"thumb"`
	Country    *string  `json:"country"`
	Genre      []string `json:"genre"`
	Style      []string `json:"style"`
}

// SearchPagination mirrors the Discogs pagination block.
type SearchPagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// SearchResults is one page of database search results.
type SearchResults struct {
	Results    []SearchResult   `json:"results"`
	Pagination SearchPagination `json:"pagination"`
}

// SearchQuery holds the GET /discogs/search parameters.
type SearchQuery struct {
	Query   string
	Page    int
	PerPage int
}

func (q *SearchQuery) Normalize() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 25
	}
}

func (q SearchQuery) Validate() error {
	if q.Query == "" {
		return invalid("q is required")
	}
	if q.Page < 1 {
		return invalid("page must be >= 1")
	}
	if q.PerPage < 1 || q.PerPage > MaxPageSize {
		return invalid("per_page must be between 1 and %d", MaxPageSize)
	}
	return nil
}
