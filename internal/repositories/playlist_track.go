package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// PlaylistTrackRepository persists ordered [models.PlaylistTrack] snapshots.
//
// Callers check playlist ownership through [PlaylistRepository] first.
type PlaylistTrackRepository struct {
	db *sql.DB
}

// NewPlaylistTrackRepository creates a new [PlaylistTrackRepository] with the given database connection
func NewPlaylistTrackRepository(db *sql.DB) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

const playlistTrackColumns = `id, playlist_id, release_id, discogs_release_id, position, title, artist,
	duration, cover_image_url, track_order, created_at`

// List returns the playlist's tracks ordered by rank.
func (r *PlaylistTrackRepository) List(ctx context.Context, playlistID string) ([]models.PlaylistTrack, error) {
	query := `SELECT ` + playlistTrackColumns + ` FROM playlist_tracks WHERE playlist_id = ? ORDER BY track_order ASC`
	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.PlaylistTrack{}
	for rows.Next() {
		tr, err := scanPlaylistTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		tracks = append(tracks, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlist tracks: %w", err)
	}
	return tracks, nil
}

// Add appends a track snapshot after the current last rank.
func (r *PlaylistTrackRepository) Add(ctx context.Context, playlistID string, in models.PlaylistTrackCreate) (*models.PlaylistTrack, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	track := models.PlaylistTrack{
		ID:               shared.GenerateID(),
		PlaylistID:       playlistID,
		ReleaseID:        in.ReleaseID,
		DiscogsReleaseID: in.DiscogsReleaseID,
		Position:         in.Position,
		Title:            in.Title,
		Artist:           in.Artist,
		Duration:         in.Duration,
		CoverImageURL:    in.CoverImageURL,
		CreatedAt:        now(),
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var last int
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(track_order), 0) FROM playlist_tracks WHERE playlist_id = ?", playlistID).Scan(&last); err != nil {
			return fmt.Errorf("failed to read track order: %w", err)
		}
		track.TrackOrder = last + 1

		query := `INSERT INTO playlist_tracks (` + playlistTrackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, query,
			track.ID, track.PlaylistID, nullString(track.ReleaseID), nullInt64(track.DiscogsReleaseID),
			nullString(track.Position), track.Title, track.Artist, nullString(track.Duration),
			nullString(track.CoverImageURL), track.TrackOrder, track.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// Remove deletes one track from the playlist. Remaining ranks keep their gaps.
func (r *PlaylistTrackRepository) Remove(ctx context.Context, playlistID, trackID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE id = ? AND playlist_id = ?", trackID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist track: %w", err)
	}
	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID))
}

// Reorder assigns ranks 1..n following trackIDs, which must name every track of the playlist exactly once.
func (r *PlaylistTrackRepository) Reorder(ctx context.Context, playlistID string, trackIDs []string) ([]models.PlaylistTrack, error) {
	if err := (models.TrackReorder{TrackIDs: trackIDs}).Validate(); err != nil {
		return nil, err
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT id FROM playlist_tracks WHERE playlist_id = ?", playlistID)
		if err != nil {
			return fmt.Errorf("failed to query playlist tracks: %w", err)
		}
		existing := make(map[string]struct{})
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan playlist track id: %w", err)
			}
			existing[id] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating playlist tracks: %w", err)
		}

		if len(existing) != len(trackIDs) {
			return fmt.Errorf("%w: expected %d track ids, got %d", shared.ErrInvalidInput, len(existing), len(trackIDs))
		}
		for _, id := range trackIDs {
			if _, ok := existing[id]; !ok {
				return fmt.Errorf("%w: track %s is not in playlist", shared.ErrInvalidInput, id)
			}
		}

		stmt, err := tx.PrepareContext(ctx, "UPDATE playlist_tracks SET track_order = ? WHERE id = ? AND playlist_id = ?")
		if err != nil {
			return fmt.Errorf("failed to prepare reorder: %w", err)
		}
		defer stmt.Close()

		for i, id := range trackIDs {
			if _, err := stmt.ExecContext(ctx, i+1, id, playlistID); err != nil {
				return fmt.Errorf("failed to reorder track %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.List(ctx, playlistID)
}

func scanPlaylistTrack(row scanner) (*models.PlaylistTrack, error) {
	var (
		tr                  models.PlaylistTrack
		releaseID, position sql.NullString
		duration, cover     sql.NullString
		discogsReleaseID    sql.NullInt64
	)
	err := row.Scan(&tr.ID, &tr.PlaylistID, &releaseID, &discogsReleaseID, &position, &tr.Title, &tr.Artist,
		&duration, &cover, &tr.TrackOrder, &tr.CreatedAt)
	if err != nil {
		return nil, err
	}

	tr.ReleaseID = stringPtr(releaseID)
	tr.DiscogsReleaseID = int64Ptr(discogsReleaseID)
	tr.Position = stringPtr(position)
	tr.Duration = stringPtr(duration)
	tr.CoverImageURL = stringPtr(cover)
	return &tr, nil
}
