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

// UserRepository persists [models.User] records and their Discogs credential.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, display_name, avatar_url, discogs_username, discogs_access_token,
	discogs_access_token_secret, discogs_connected_at, created_at, updated_at`

// Create inserts a new user. The id comes from the identity provider.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts

	query := `INSERT INTO users (id, email, display_name, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, nullString(user.DisplayName), nullString(user.AvatarURL), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Ensure returns the user with the given id, creating an empty profile when none exists.
func (r *UserRepository) Ensure(ctx context.Context, id, email string) (*models.User, error) {
	ts := now()
	query := `INSERT INTO users (id, email, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, id, email, ts, ts); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return r.Get(ctx, id)
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// UpdateProfile applies the non-nil fields of update and returns the stored user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	sets := []string{}
	args := []any{}
	if update.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, strings.TrimSpace(*update.DisplayName))
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *update.AvatarURL)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if err := checkAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// SetCredential stores the Discogs access pair and username for the user.
func (r *UserRepository) SetCredential(ctx context.Context, id string, cred models.RemoteCredential, connectedAt time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET discogs_username = ?, discogs_access_token = ?, discogs_access_token_secret = ?,
			discogs_connected_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, cred.Username, cred.Token, cred.Secret, connectedAt.UTC(), now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to store discogs credential: %w", err)
	}
	if err := checkAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// ClearCredential removes every stored Discogs field from the user.
func (r *UserRepository) ClearCredential(ctx context.Context, id string) (*models.User, error) {
	query := `
		UPDATE users
		SET discogs_username = NULL, discogs_access_token = NULL, discogs_access_token_secret = NULL,
			discogs_connected_at = NULL, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to clear discogs credential: %w", err)
	}
	if err := checkAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes a user and, through foreign keys, everything they own.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id))
}

func (r *UserRepository) scanOne(row scanner, id string) (*models.User, error) {
	var (
		user        models.User
		displayName sql.NullString
		avatarURL   sql.NullString
		username    sql.NullString
		token       sql.NullString
		secret      sql.NullString
		connectedAt sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Email, &displayName, &avatarURL, &username, &token, &secret,
		&connectedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.DisplayName = stringPtr(displayName)
	user.AvatarURL = stringPtr(avatarURL)
	user.ConnectedAt = timePtr(connectedAt)
	if token.Valid && secret.Valid {
		user.Credential = &models.RemoteCredential{Token: token.String, Secret: secret.String, Username: username.String}
	}

	return &user, nil
}
