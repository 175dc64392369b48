package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// PlaylistRepository persists [models.Playlist] metadata.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistSelect = `
	SELECT p.id, p.user_id, p.name, p.description, p.tags, p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM playlist_tracks t WHERE t.playlist_id = p.id) AS track_count
	FROM playlists p
`

// Create inserts a new playlist for the user.
func (r *PlaylistRepository) Create(ctx context.Context, userID string, in models.PlaylistCreate) (*models.Playlist, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tags, err := encodeList(in.Tags)
	if err != nil {
		return nil, err
	}

	id := shared.GenerateID()
	ts := now()
	query := `INSERT INTO playlists (id, user_id, name, description, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, userID, strings.TrimSpace(in.Name), nullString(in.Description), tags, ts, ts); err != nil {
		return nil, fmt.Errorf("failed to insert playlist: %w", err)
	}

	return r.Get(ctx, userID, id)
}

// Get retrieves a playlist owned by the user.
func (r *PlaylistRepository) Get(ctx context.Context, userID, id string) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, playlistSelect+" WHERE p.id = ? AND p.user_id = ?", id, userID)
	pl, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}
	return pl, nil
}

// List returns one page of the user's playlists, newest first.
func (r *PlaylistRepository) List(ctx context.Context, userID string, p models.Pagination) (models.Page[models.Playlist], error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return models.Page[models.Playlist]{}, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlists WHERE user_id = ?", userID).Scan(&total); err != nil {
		return models.Page[models.Playlist]{}, fmt.Errorf("failed to count playlists: %w", err)
	}

	query := playlistSelect + " WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, userID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[models.Playlist]{}, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	items := []models.Playlist{}
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return models.Page[models.Playlist]{}, fmt.Errorf("failed to scan playlist: %w", err)
		}
		items = append(items, *pl)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Playlist]{}, fmt.Errorf("error iterating playlists: %w", err)
	}

	return models.NewPage(items, total, p.Page, p.PageSize), nil
}

// Update applies the non-nil fields of in to the playlist.
func (r *PlaylistRepository) Update(ctx context.Context, userID, id string, in models.PlaylistUpdate) (*models.Playlist, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*in.Name))
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if in.Tags != nil {
		tags, err := encodeList(*in.Tags)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	if len(sets) == 0 {
		return r.Get(ctx, userID, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id, userID)

	query := fmt.Sprintf("UPDATE playlists SET %s WHERE id = ? AND user_id = ?", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}
	if err := checkAffected(result, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// Delete removes a playlist and its tracks.
func (r *PlaylistRepository) Delete(ctx context.Context, userID, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM playlists WHERE id = ? AND user_id = ?", id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}
		if err := checkAffected(result, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE playlist_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete playlist tracks: %w", err)
		}
		return nil
	})
}

// Touch bumps updated_at after the playlist's tracks change.
func (r *PlaylistRepository) Touch(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE playlists SET updated_at = ? WHERE id = ? AND user_id = ?", now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}
	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
}

func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		pl          models.Playlist
		description sql.NullString
		tags        string
	)
	if err := row.Scan(&pl.ID, &pl.UserID, &pl.Name, &description, &tags, &pl.CreatedAt, &pl.UpdatedAt, &pl.TrackCount); err != nil {
		return nil, err
	}

	var err error
	if pl.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	pl.Description = stringPtr(description)
	return &pl, nil
}
