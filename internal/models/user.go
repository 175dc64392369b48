package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User is the local account for an identity-provider subject.
type User struct {
	ID          string
	Email       string
	DisplayName *string
	AvatarURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Credential is nil until the Discogs OAuth handshake completes.
	Credential  *RemoteCredential
	ConnectedAt *time.Time
}

// RemoteCredential is the Discogs access-token pair plus the username it belongs to.
type RemoteCredential struct {
	Token    string
	Secret   string
	Username string
}

// Valid reports whether the token pair is usable for signed requests.
func (c *RemoteCredential) Valid() bool {
	return c != nil && c.Token != "" && c.Secret != ""
}

// Connected reports whether the user has a stored Discogs credential.
func (u *User) Connected() bool {
	return u.Credential.Valid()
}

// UserProfile is the JSON view of a [User]. Token material is never exposed.
type UserProfile struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	DisplayName        *string    `json:"display_name"`
	AvatarURL          *string    `json:"avatar_url"`
	DiscogsUsername    *string    `json:"discogs_username"`
	DiscogsConnected   bool       `json:"discogs_connected"`
	DiscogsConnectedAt *time.Time `json:"discogs_connected_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Profile returns the JSON view of u.
func (u *User) Profile() UserProfile {
	p := UserProfile{
		ID:                 u.ID,
		Email:              u.Email,
		DisplayName:        u.DisplayName,
		AvatarURL:          u.AvatarURL,
		DiscogsConnected:   u.Connected(),
		DiscogsConnectedAt: u.ConnectedAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
	if u.Credential != nil && u.Credential.Username != "" {
		name := u.Credential.Username
		p.DiscogsUsername = &name
	}
	return p
}

// UserUpdate is the PATCH /users/me payload. Nil fields are left unchanged.
type UserUpdate struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func (u UserUpdate) Validate() error {
	if u.DisplayName != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*u.DisplayName))
		if n < 1 || n > 100 {
			return invalid("display_name must be between 1 and 100 characters")
		}
	}
	return nil
}

// OAuthCallback is the POST /oauth/callback payload.
type OAuthCallback struct {
	OAuthVerifier string `json:"oauth_verifier"`
	State         string `json:"state"`
}

func (c OAuthCallback) Validate() error {
	if c.OAuthVerifier == "" {
		return invalid("oauth_verifier is required")
	}
	if c.State == "" {
		return invalid("state is required")
	}
	return nil
}

// AuthorizationStart is returned when the OAuth flow begins.
type AuthorizationStart struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}
