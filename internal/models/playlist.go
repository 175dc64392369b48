package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Playlist is a user-curated list of track snapshots.
type Playlist struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Tags        []string  `json:"tags"`
	TrackCount  int       `json:"track_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlaylistTrack is a denormalized snapshot of a track taken when it was added.
type PlaylistTrack struct {
	ID               string    `json:"id"`
	PlaylistID       string    `json:"playlist_id"`
	ReleaseID        *string   `json:"release_id"`
	DiscogsReleaseID *int64    `json:"discogs_release_id"`
	Position         *string   `json:"position"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist"`
	Duration         *string   `json:"duration"`
	CoverImageURL    *string   `json:"cover_image_url"`
	TrackOrder       int       `json:"track_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// PlaylistWithTracks is a playlist with its tracks in rank order.
type PlaylistWithTracks struct {
	Playlist
	Tracks        []PlaylistTrack `json:"tracks"`
	TotalDuration *string         `json:"total_duration"`
}

// PlaylistCreate is the POST /playlists payload.
type PlaylistCreate struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (p PlaylistCreate) Validate() error {
	if err := validatePlaylistName(p.Name); err != nil {
		return err
	}
	return validateDescription(p.Description)
}

// PlaylistUpdate is the PATCH /playlists/{id} payload. Nil fields are left unchanged.
type PlaylistUpdate struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

func (p PlaylistUpdate) Validate() error {
	if p.Name != nil {
		if err := validatePlaylistName(*p.Name); err != nil {
			return err
		}
	}
	return validateDescription(p.Description)
}

// PlaylistTrackCreate is the POST /playlists/{id}/tracks payload.
type PlaylistTrackCreate struct {
	ReleaseID        *string `json:"release_id"`
	DiscogsReleaseID *int64  `json:"discogs_release_id"`
	Position         *string `json:"position"`
	Title            string  `json:"title"`
	Artist           string  `json:"artist"`
	Duration         *string `json:"duration"`
	CoverImageURL    *string `json:"cover_image_url"`
}

func (p PlaylistTrackCreate) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(p.Artist) == "" {
		return invalid("artist is required")
	}
	return nil
}

// TrackReorder is the PATCH /playlists/{id}/tracks/reorder payload.
//
// TrackIDs lists every track of the playlist in its new order.
type TrackReorder struct {
	TrackIDs []string `json:"track_ids"`
}

func (r TrackReorder) Validate() error {
	if len(r.TrackIDs) == 0 {
		return invalid("track_ids must not be empty")
	}
	seen := make(map[string]struct{}, len(r.TrackIDs))
	for _, id := range r.TrackIDs {
		if _, dup := seen[id]; dup {
			return invalid("duplicate track id %s", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validatePlaylistName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 1 || n > 200 {
		return invalid("name must be between 1 and 200 characters")
	}
	return nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > 1000 {
		return invalid("description must be at most 1000 characters")
	}
	return nil
}
