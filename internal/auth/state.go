package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/desertthunder/bookshelf/internal/shared"
)

const (
	// StateTTL bounds how long a user has between authorize and callback.
	StateTTL = 10 * time.Minute

	stateKeySalt       = "bookshelf-discogs-oauth"
	stateKeyIterations = 100_000
	stateKeyLen        = chacha20poly1305.KeySize
	stateNonceBytes    = 16
)

// stateEncoding rejects non-canonical trailing bits so that every character of a token is significant.
var stateEncoding = base64.RawURLEncoding.Strict()

// StateCodec seals OAuth request-token material into an opaque, expiring token held by the client.
//
// The key is derived once from the operator secret with PBKDF2-SHA256. Tokens are
// XChaCha20-Poly1305 ciphertext with the nonce prepended, base64url encoded.
type StateCodec struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

// StateCodecOption configures a [StateCodec].
type StateCodecOption func(*StateCodec)

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) StateCodecOption {
	return func(c *StateCodec) { c.now = now }
}

// WithTTL overrides [StateTTL].
func WithTTL(ttl time.Duration) StateCodecOption {
	return func(c *StateCodec) { c.ttl = ttl }
}

type statePayload struct {
	RequestToken  string    `json:"request_token"`
	RequestSecret string    `json:"request_secret"`
	Nonce         string    `json:"nonce"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// NewStateCodec derives the state key from secret.
func NewStateCodec(secret string, opts ...StateCodecOption) (*StateCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: state encryption key is empty", shared.ErrNotConfigured)
	}

	key := pbkdf2.Key([]byte(secret), []byte(stateKeySalt), stateKeyIterations, stateKeyLen, sha256.New)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create state cipher: %w", err)
	}

	c := &StateCodec{aead: aead, ttl: StateTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode seals the request-token pair with a random nonce and an expiry of now+TTL.
func (c *StateCodec) Encode(requestToken, requestSecret string) (string, error) {
	nonce := make([]byte, stateNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	plaintext, err := json.Marshal(statePayload{
		RequestToken:  requestToken,
		RequestSecret: requestSecret,
		Nonce:         hex.EncodeToString(nonce),
		ExpiresAt:     c.now().UTC().Add(c.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	aeadNonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(aeadNonce); err != nil {
		return "", fmt.Errorf("failed to generate cipher nonce: %w", err)
	}

	sealed := c.aead.Seal(aeadNonce, aeadNonce, plaintext, nil)
	return stateEncoding.EncodeToString(sealed), nil
}

// Decode opens a state token and returns the request-token pair.
//
// Any decoding, authentication or parse failure is [shared.ErrInvalidState].
// A token whose expiry is not after the current time is [shared.ErrExpiredState].
// The nonce is carried but not checked against previously seen values.
func (c *StateCodec) Decode(state string) (requestToken, requestSecret string, err error) {
	sealed, err := stateEncoding.DecodeString(state)
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed encoding", shared.ErrInvalidState)
	}

	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return "", "", fmt.Errorf("%w: token too short", shared.ErrInvalidState)
	}

	plaintext, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: authentication failed", shared.ErrInvalidState)
	}

	var payload statePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return "", "", fmt.Errorf("%w: malformed payload", shared.ErrInvalidState)
	}
	if payload.RequestToken == "" || payload.RequestSecret == "" || payload.ExpiresAt.IsZero() {
		return "", "", fmt.Errorf("%w: incomplete payload", shared.ErrInvalidState)
	}

	if !c.now().Before(payload.ExpiresAt) {
		return "", "", shared.ErrExpiredState
	}

	return payload.RequestToken, payload.RequestSecret, nil
}
