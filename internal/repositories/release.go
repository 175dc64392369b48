package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// ReleaseRepository persists collection rows mirrored from Discogs.
type ReleaseRepository struct {
	db *sql.DB
}

// NewReleaseRepository creates a new [ReleaseRepository] with the given database connection
func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

const releaseListColumns = `id, user_id, discogs_release_id, discogs_instance_id, discogs_folder_id, title, artist_name, year,
	cover_image_url, format, genres, styles, labels, catalog_number, country, added_to_discogs_at,
	synced_at, created_at, updated_at`

const releaseColumns = releaseListColumns + `, discogs_metadata`

// InstanceIndex returns the user's rows as discogs_instance_id -> local id.
func (r *ReleaseRepository) InstanceIndex(ctx context.Context, userID string) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT discogs_instance_id, id FROM releases WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query release index: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]string)
	for rows.Next() {
		var (
			instanceID int64
			id         string
		)
		if err := rows.Scan(&instanceID, &id); err != nil {
			return nil, fmt.Errorf("failed to scan release index: %w", err)
		}
		index[instanceID] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release index: %w", err)
	}
	return index, nil
}

// UpsertBatch inserts or updates releases for the user in one transaction,
// matching existing rows on (user_id, discogs_instance_id).
//
// Local ids and created_at are kept for rows that already exist.
func (r *ReleaseRepository) UpsertBatch(ctx context.Context, userID string, releases []models.Release) error {
	if len(releases) == 0 {
		return nil
	}

	query := `
		INSERT INTO releases (
			id, user_id, discogs_release_id, discogs_instance_id, discogs_folder_id, title, artist_name, year,
			cover_image_url, format, genres, styles, labels, catalog_number, country,
			discogs_metadata, added_to_discogs_at, synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, discogs_instance_id) DO UPDATE SET
			discogs_release_id = excluded.discogs_release_id,
			discogs_folder_id = excluded.discogs_folder_id,
			title = excluded.title,
			artist_name = excluded.artist_name,
			year = excluded.year,
			cover_image_url = excluded.cover_image_url,
			format = excluded.format,
			genres = excluded.genres,
			styles = excluded.styles,
			labels = excluded.labels,
			catalog_number = excluded.catalog_number,
			country = COALESCE(excluded.country, releases.country),
			discogs_metadata = excluded.discogs_metadata,
			added_to_discogs_at = excluded.added_to_discogs_at,
			synced_at = excluded.synced_at,
			updated_at = excluded.updated_at
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare release upsert: %w", err)
		}
		defer stmt.Close()

		ts := now()
		for i := range releases {
			rel := &releases[i]
			args, err := releaseArgs(userID, rel, ts)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to upsert release (instance %d): %w", rel.DiscogsInstanceID, err)
			}
		}
		return nil
	})
}

func releaseArgs(userID string, rel *models.Release, ts time.Time) ([]any, error) {
	genres, err := encodeList(rel.Genres)
	if err != nil {
		return nil, err
	}
	styles, err := encodeList(rel.Styles)
	if err != nil {
		return nil, err
	}
	labels, err := encodeList(rel.Labels)
	if err != nil {
		return nil, err
	}
	metadata, err := encodeMetadata(rel.Metadata)
	if err != nil {
		return nil, err
	}

	id := rel.ID
	if id == "" {
		id = shared.GenerateID()
	}
	syncedAt := ts
	if !rel.SyncedAt.IsZero() {
		syncedAt = rel.SyncedAt.UTC()
	}

	return []any{
		id, userID, rel.DiscogsReleaseID, rel.DiscogsInstanceID, rel.DiscogsFolderID, rel.Title, rel.ArtistName, nullInt(rel.Year),
		nullString(rel.CoverImageURL), nullString(rel.Format), genres, styles, labels,
		nullString(rel.CatalogNumber), nullString(rel.Country), metadata, nullTime(rel.AddedAt),
		syncedAt, ts, ts,
	}, nil
}

// Get retrieves one release owned by the user, including the raw metadata.
func (r *ReleaseRepository) Get(ctx context.Context, userID, id string) (*models.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE id = ? AND user_id = ?`
	rel, err := scanRelease(r.db.QueryRowContext(ctx, query, id, userID), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrReleaseNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query release: %w", err)
	}
	return rel, nil
}

// List returns one page of the user's collection. Raw metadata is not loaded.
func (r *ReleaseRepository) List(ctx context.Context, userID string, q models.ReleaseQuery) (models.Page[models.Release], error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return models.Page[models.Release]{}, err
	}

	where := "user_id = ?"
	args := []any{userID}
	if q.Search != "" {
		where += " AND (title LIKE ? ESCAPE '\\' OR artist_name LIKE ? ESCAPE '\\')"
		pattern := "%" + escapeLike(q.Search) + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM releases WHERE "+where, args...).Scan(&total); err != nil {
		return models.Page[models.Release]{}, fmt.Errorf("failed to count releases: %w", err)
	}

	// SortBy was checked against ReleaseSortColumns by Validate.
	order := fmt.Sprintf("%s %s, id ASC", q.SortBy, strings.ToUpper(q.SortOrder))

	query := fmt.Sprintf("SELECT %s FROM releases WHERE %s ORDER BY %s LIMIT ? OFFSET ?", releaseListColumns, where, order)
	rows, err := r.db.QueryContext(ctx, query, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return models.Page[models.Release]{}, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	items := []models.Release{}
	for rows.Next() {
		rel, err := scanRelease(rows, false)
		if err != nil {
			return models.Page[models.Release]{}, fmt.Errorf("failed to scan release: %w", err)
		}
		items = append(items, *rel)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Release]{}, fmt.Errorf("error iterating releases: %w", err)
	}

	return models.NewPage(items, total, q.Page, q.PageSize), nil
}

// Count returns the number of releases the user holds locally.
func (r *ReleaseRepository) Count(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM releases WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count releases: %w", err)
	}
	return count, nil
}

// UpdateDetail stores the country and raw metadata fetched from the release endpoint.
func (r *ReleaseRepository) UpdateDetail(ctx context.Context, userID, id string, country *string, metadata map[string]any) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE releases
		SET country = COALESCE(?, country), discogs_metadata = COALESCE(?, discogs_metadata), updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, nullString(country), encoded, now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update release detail: %w", err)
	}
	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrReleaseNotFound, id))
}

// Delete removes one release owned by the user.
func (r *ReleaseRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM releases WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete release: %w", err)
	}
	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrReleaseNotFound, id))
}

func scanRelease(row scanner, withMetadata bool) (*models.Release, error) {
	var (
		rel                    models.Release
		year                   sql.NullInt64
		cover, format, catno   sql.NullString
		country, metadata      sql.NullString
		genres, styles, labels string
		addedAt                sql.NullTime
	)

	dest := []any{
		&rel.ID, &rel.UserID, &rel.DiscogsReleaseID, &rel.DiscogsInstanceID, &rel.DiscogsFolderID, &rel.Title, &rel.ArtistName, &year,
		&cover, &format, &genres, &styles, &labels, &catno, &country, &addedAt,
		&rel.SyncedAt, &rel.CreatedAt, &rel.UpdatedAt,
	}
	if withMetadata {
		dest = append(dest, &metadata)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if rel.Genres, err = decodeList(genres); err != nil {
		return nil, err
	}
	if rel.Styles, err = decodeList(styles); err != nil {
		return nil, err
	}
	if rel.Labels, err = decodeList(labels); err != nil {
		return nil, err
	}
	if rel.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}

	rel.Year = intPtr(year)
	rel.CoverImageURL = stringPtr(cover)
	rel.Format = stringPtr(format)
	rel.CatalogNumber = stringPtr(catno)
	rel.Country = stringPtr(country)
	rel.AddedAt = timePtr(addedAt)

	return &rel, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
