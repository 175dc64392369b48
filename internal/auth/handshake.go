package auth

import (
	"context"
	"fmt"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Provider is the OAuth 1.0a surface of the remote service.
type Provider interface {
	// RequestToken obtains a temporary request-token pair bound to callbackURL.
	RequestToken(ctx context.Context, callbackURL string) (token, secret string, err error)
	// AuthorizationURL returns the hosted page where the user approves requestToken.
	AuthorizationURL(requestToken string) (string, error)
	// AccessToken exchanges an approved request token and verifier for an access pair.
	AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (token, secret string, err error)
	// Identity returns the remote username for an access pair.
	Identity(ctx context.Context, cred models.RemoteCredential) (string, error)
}

// Handshake drives the three-legged flow: an unauthorized user is sent to the provider,
// returns with a verifier and the opaque state, and ends up with a stored credential.
//
// No server-side session is kept between the two legs; everything needed for the
// exchange travels inside the state token.
type Handshake struct {
	provider Provider
	codec    *StateCodec
}

// NewHandshake creates a [Handshake] over provider and codec.
func NewHandshake(provider Provider, codec *StateCodec) *Handshake {
	return &Handshake{provider: provider, codec: codec}
}

// Begin requests a fresh token pair and returns the authorization URL with its state token.
func (h *Handshake) Begin(ctx context.Context, callbackURL string) (*models.AuthorizationStart, error) {
	token, secret, err := h.provider.RequestToken(ctx, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthorizeFailed, err)
	}

	authURL, err := h.provider.AuthorizationURL(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthorizeFailed, err)
	}

	state, err := h.codec.Encode(token, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthorizeFailed, err)
	}

	return &models.AuthorizationStart{AuthorizationURL: authURL, State: state}, nil
}

// Complete decodes state and exchanges verifier for an access pair.
//
// State failures keep the codec's errors; provider rejection is [shared.ErrOAuthExchange].
func (h *Handshake) Complete(ctx context.Context, verifier, state string) (token, secret string, err error) {
	requestToken, requestSecret, err := h.codec.Decode(state)
	if err != nil {
		return "", "", err
	}

	token, secret, err = h.provider.AccessToken(ctx, requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrOAuthExchange, err)
	}
	return token, secret, nil
}

// FetchIdentity resolves the remote username for an access pair.
func (h *Handshake) FetchIdentity(ctx context.Context, token, secret string) (string, error) {
	username, err := h.provider.Identity(ctx, models.RemoteCredential{Token: token, Secret: secret})
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch user identity: %v", shared.ErrOAuthExchange, err)
	}
	if username == "" {
		return "", fmt.Errorf("%w: identity response has no username", shared.ErrOAuthExchange)
	}
	return username, nil
}

// Connect runs [Handshake.Complete] then [Handshake.FetchIdentity] and returns the full credential.
// Persisting it is up to the caller.
func (h *Handshake) Connect(ctx context.Context, verifier, state string) (models.RemoteCredential, error) {
	token, secret, err := h.Complete(ctx, verifier, state)
	if err != nil {
		return models.RemoteCredential{}, err
	}

	username, err := h.FetchIdentity(ctx, token, secret)
	if err != nil {
		return models.RemoteCredential{}, err
	}

	return models.RemoteCredential{Token: token, Secret: secret, Username: username}, nil
}
