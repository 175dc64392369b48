// Discogs API implementation of [Discogs] and of the OAuth 1.0a provider used by auth.Handshake
//
// Endpoint reference: https://www.discogs.com/developers
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

const (
	discogsBaseURL      = "https://api.discogs.com"
	discogsAuthorizeURL = "https://www.discogs.com/oauth/authorize"
	discogsAccept       = "application/vnd.discogs.v2.discogs+json"

	// CollectionPerPage is the largest page size the collection endpoint accepts.
	CollectionPerPage = 100

	// UncategorizedFolder is the folder new collection instances are added to.
	UncategorizedFolder = 1

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// DiscogsService implements [Discogs] over HTTP.
//
// All traffic, including the token endpoints, goes through one transport that sets the
// User-Agent Discogs requires and waits on a token-bucket limiter.
type DiscogsService struct {
	config  oauth1.Config
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *log.Logger
}

// NewDiscogsService creates a client from the discogs config section.
//
// Empty base URLs fall back to the public Discogs hosts.
func NewDiscogsService(cfg shared.DiscogsConfig, logger *log.Logger) *DiscogsService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = discogsBaseURL
	}
	authorizeURL := cfg.AuthorizeURL
	if authorizeURL == "" {
		authorizeURL = discogsAuthorizeURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = shared.DefaultUserAgent
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	client := &http.Client{
		Timeout: timeout,
		Transport: &discogsTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
			limiter:   rate.NewLimiter(limit, burst),
		},
	}

	return &DiscogsService{
		config: oauth1.Config{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: baseURL + "/oauth/request_token",
				AuthorizeURL:    authorizeURL,
				AccessTokenURL:  baseURL + "/oauth/access_token",
			},
			HTTPClient: client,
		},
		baseURL: baseURL,
		timeout: timeout,
		client:  client,
		logger:  shared.WithLogger(logger, "service", "discogs"),
	}
}

// discogsTransport stamps the User-Agent and applies the rate limit before every request.
type discogsTransport struct {
	base      http.RoundTripper
	userAgent string
	limiter   *rate.Limiter
}

func (t *discogsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// RequestToken obtains a temporary request-token pair. An empty callbackURL requests out-of-band verification.
//
// The underlying token call does not take a context; it is bounded by the client timeout.
func (s *DiscogsService) RequestToken(_ context.Context, callbackURL string) (string, string, error) {
	cfg := s.config
	cfg.CallbackURL = callbackURL
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = "oob"
	}

	token, secret, err := cfg.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("request token: %w", err)
	}
	return token, secret, nil
}

// AuthorizationURL returns the Discogs page where the user approves requestToken.
func (s *DiscogsService) AuthorizationURL(requestToken string) (string, error) {
	u, err := s.config.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("authorization url: %w", err)
	}
	return u.String(), nil
}

// AccessToken exchanges an approved request token and verifier for the user's access pair.
func (s *DiscogsService) AccessToken(_ context.Context, requestToken, requestSecret, verifier string) (string, string, error) {
	token, secret, err := s.config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("access token: %w", err)
	}
	return token, secret, nil
}

// signedClient returns an [http.Client] that signs every request with cred and sends it through s.client.
func (s *DiscogsService) signedClient(ctx context.Context, cred models.RemoteCredential) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, s.client)
	return s.config.Client(ctx, oauth1.NewToken(cred.Token, cred.Secret))
}

// do performs a signed request and decodes a JSON body into result when it is non-nil.
func (s *DiscogsService) do(ctx context.Context, cred models.RemoteCredential, method, path string, query url.Values, result any) error {
	if !cred.Valid() {
		return shared.ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", discogsAccept)

	started := time.Now()
	resp, err := s.signedClient(ctx, cred).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrRemoteAPI, method, path, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("discogs request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: errorMessage(resp.Body)}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", shared.ErrNotFound, statusErr)
		}
		return fmt.Errorf("%w: %w", shared.ErrRemoteAPI, statusErr)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrRemoteAPI, path, err)
	}
	return nil
}

// errorMessage extracts the "message" field Discogs puts in error bodies, falling back to the raw text.
func errorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// Identity returns the username for cred.
func (s *DiscogsService) Identity(ctx context.Context, cred models.RemoteCredential) (string, error) {
	var identity struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := s.do(ctx, cred, http.MethodGet, "/oauth/identity", nil, &identity); err != nil {
		return "", err
	}
	return identity.Username, nil
}

// CollectionPage fetches one page of folder 0 for cred.Username.
func (s *DiscogsService) CollectionPage(ctx context.Context, cred models.RemoteCredential, page int) (*CollectionPage, error) {
	if cred.Username == "" {
		return nil, fmt.Errorf("%w: missing discogs username", shared.ErrNotConnected)
	}

	path := fmt.Sprintf("/users/%s/collection/folders/0/releases", url.PathEscape(cred.Username))
	query := url.Values{
		"page":     {strconv.Itoa(max(page, 1))},
		"per_page": {strconv.Itoa(CollectionPerPage)},
	}

	var result CollectionPage
	if err := s.do(ctx, cred, http.MethodGet, path, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Release fetches /releases/{id}.
func (s *DiscogsService) Release(ctx context.Context, cred models.RemoteCredential, releaseID int64) (map[string]any, error) {
	var result map[string]any
	if err := s.do(ctx, cred, http.MethodGet, fmt.Sprintf("/releases/%d", releaseID), nil, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty release %d", shared.ErrRemoteAPI, releaseID)
	}
	return result, nil
}

// Search queries the database for releases.
func (s *DiscogsService) Search(ctx context.Context, cred models.RemoteCredential, q models.SearchQuery) (*SearchResponse, error) {
	query := url.Values{
		"q":        {q.Query},
		"type":     {"release"},
		"page":     {strconv.Itoa(q.Page)},
		"per_page": {strconv.Itoa(q.PerPage)},
	}

	var result SearchResponse
	if err := s.do(ctx, cred, http.MethodGet, "/database/search", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddToCollection adds releaseID to the Uncategorized folder.
func (s *DiscogsService) AddToCollection(ctx context.Context, cred models.RemoteCredential, releaseID int64) (int64, error) {
	if cred.Username == "" {
		return 0, fmt.Errorf("%w: missing discogs username", shared.ErrNotConnected)
	}

	path := fmt.Sprintf("/users/%s/collection/folders/%d/releases/%d", url.PathEscape(cred.Username), UncategorizedFolder, releaseID)
	var result struct {
		InstanceID  int64  `json:"instance_id"`
		ResourceURL string `json:"resource_url"`
	}
	if err := s.do(ctx, cred, http.MethodPost, path, nil, &result); err != nil {
		return 0, err
	}
	if result.InstanceID == 0 {
		return 0, fmt.Errorf("%w: response has no instance id", shared.ErrRemoteAPI)
	}
	return result.InstanceID, nil
}

// RemoveFromCollection deletes one instance. folderID must be the instance's real folder; Discogs rejects folder 0.
func (s *DiscogsService) RemoveFromCollection(ctx context.Context, cred models.RemoteCredential, folderID, releaseID, instanceID int64) error {
	if cred.Username == "" {
		return fmt.Errorf("%w: missing discogs username", shared.ErrNotConnected)
	}
	if folderID <= 0 {
		folderID = UncategorizedFolder
	}

	path := fmt.Sprintf("/users/%s/collection/folders/%d/releases/%d/instances/%d",
		url.PathEscape(cred.Username), folderID, releaseID, instanceID)
	return s.do(ctx, cred, http.MethodDelete, path, nil, nil)
}

// IsStatus reports whether err carries a Discogs response with the given status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
