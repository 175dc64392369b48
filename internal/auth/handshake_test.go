package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

type fakeProvider struct {
	requestErr  error
	accessErr   error
	identityErr error
	username    string

	gotCallback string
	gotRequest  [2]string
	gotVerifier string
	gotCred     models.RemoteCredential
}

func (p *fakeProvider) RequestToken(_ context.Context, callbackURL string) (string, string, error) {
	p.gotCallback = callbackURL
	if p.requestErr != nil {
		return "", "", p.requestErr
	}
	return "req-token", "req-secret", nil
}

func (p *fakeProvider) AuthorizationURL(requestToken string) (string, error) {
	return "https://www.discogs.com/oauth/authorize?oauth_token=" + url.QueryEscape(requestToken), nil
}

func (p *fakeProvider) AccessToken(_ context.Context, requestToken, requestSecret, verifier string) (string, string, error) {
	p.gotRequest = [2]string{requestToken, requestSecret}
	p.gotVerifier = verifier
	if p.accessErr != nil {
		return "", "", p.accessErr
	}
	return "access-token", "access-secret", nil
}

func (p *fakeProvider) Identity(_ context.Context, cred models.RemoteCredential) (string, error) {
	p.gotCred = cred
	if p.identityErr != nil {
		return "", p.identityErr
	}
	return p.username, nil
}

func newTestHandshake(t *testing.T, p Provider) *Handshake {
	t.Helper()
	codec, err := NewStateCodec("handshake-secret")
	require.NoError(t, err)
	return NewHandshake(p, codec)
}

func TestHandshake(t *testing.T) {
	ctx := context.Background()

	t.Run("Begin", func(t *testing.T) {
		p := &fakeProvider{}
		h := newTestHandshake(t, p)

		start, err := h.Begin(ctx, "http://localhost:3000/callback")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/callback", p.gotCallback)
		assert.Contains(t, start.AuthorizationURL, "oauth_token=req-token")
		assert.NotEmpty(t, start.State)

		tok, sec, err := h.codec.Decode(start.State)
		require.NoError(t, err)
		assert.Equal(t, "req-token", tok)
		assert.Equal(t, "req-secret", sec)
	})

	t.Run("Begin Provider Failure", func(t *testing.T) {
		h := newTestHandshake(t, &fakeProvider{requestErr: errors.New("consumer key rejected")})

		_, err := h.Begin(ctx, "")
		assert.ErrorIs(t, err, shared.ErrAuthorizeFailed)
		assert.Contains(t, err.Error(), "consumer key rejected")
	})

	t.Run("Full Flow", func(t *testing.T) {
		p := &fakeProvider{username: "crate_digger"}
		h := newTestHandshake(t, p)

		start, err := h.Begin(ctx, "")
		require.NoError(t, err)

		cred, err := h.Connect(ctx, "verifier-123", start.State)
		require.NoError(t, err)
		assert.Equal(t, models.RemoteCredential{Token: "access-token", Secret: "access-secret", Username: "crate_digger"}, cred)
		assert.Equal(t, [2]string{"req-token", "req-secret"}, p.gotRequest)
		assert.Equal(t, "verifier-123", p.gotVerifier)
		assert.Equal(t, "access-token", p.gotCred.Token)
	})

	t.Run("Complete With Bad State", func(t *testing.T) {
		p := &fakeProvider{}
		h := newTestHandshake(t, p)

		_, _, err := h.Complete(ctx, "v", "bogus")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Empty(t, p.gotVerifier, "provider must not be called for a bad state")
	})

	t.Run("Complete Exchange Rejected", func(t *testing.T) {
		p := &fakeProvider{accessErr: errors.New("401 invalid verifier")}
		h := newTestHandshake(t, p)

		start, err := h.Begin(ctx, "")
		require.NoError(t, err)

		_, _, err = h.Complete(ctx, "v", start.State)
		assert.ErrorIs(t, err, shared.ErrOAuthExchange)
	})

	t.Run("Identity Failure", func(t *testing.T) {
		h := newTestHandshake(t, &fakeProvider{identityErr: errors.New("timeout")})

		start, err := h.Begin(ctx, "")
		require.NoError(t, err)

		_, err = h.Connect(ctx, "v", start.State)
		assert.ErrorIs(t, err, shared.ErrOAuthExchange)
		assert.Contains(t, err.Error(), "identity")
	})

	t.Run("Identity Without Username", func(t *testing.T) {
		h := newTestHandshake(t, &fakeProvider{})

		_, err := h.FetchIdentity(ctx, "a", "b")
		assert.ErrorIs(t, err, shared.ErrOAuthExchange)
	})
}
