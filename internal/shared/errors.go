package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrNotConfigured = fmt.Errorf("discogs integration is not configured")

	// Authentication errors
	ErrUnauthorized    = fmt.Errorf("not authenticated")
	ErrInvalidToken    = fmt.Errorf("invalid bearer token")
	ErrNotConnected    = fmt.Errorf("discogs account not connected, please connect first")
	ErrInvalidState    = fmt.Errorf("invalid state parameter")
	ErrExpiredState    = fmt.Errorf("authorization session expired, please try again")
	ErrOAuthExchange   = fmt.Errorf("failed to exchange tokens")
	ErrAuthorizeFailed = fmt.Errorf("failed to start authorization")

	// API and service errors
	ErrRemoteAPI        = fmt.Errorf("discogs API request failed")
	ErrCollectionFetch  = fmt.Errorf("failed to fetch discogs collection")
	ErrNotFound         = fmt.Errorf("not found")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrReleaseNotFound  = fmt.Errorf("release %w", ErrNotFound)
	ErrPlaylistNotFound = fmt.Errorf("playlist %w", ErrNotFound)
	ErrTrackNotFound    = fmt.Errorf("track %w", ErrNotFound)

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
