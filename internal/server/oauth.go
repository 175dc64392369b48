package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/bookshelf/internal/shared"
)

// OAuthResult is what the Discogs redirect delivered to the local callback.
type OAuthResult struct {
	Verifier string
	err      error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives the OAuth 1.0a redirect for the CLI connect flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	requestToken string
	resultChan   chan OAuthResult
	once         sync.Once
	callbackHit  bool
	mu           sync.Mutex
}

// NewOAuthHandler creates a callback handler that accepts only the given request token.
func NewOAuthHandler(requestToken string) *OAuthHandler {
	return &OAuthHandler{
		requestToken: requestToken,
		resultChan:   make(chan OAuthResult, 1),
	}
}

// RequestTokenFromURL extracts oauth_token from a Discogs authorization URL.
func RequestTokenFromURL(authorizationURL string) (string, error) {
	u, err := url.Parse(authorizationURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthorizeFailed, err)
	}
	token := u.Query().Get("oauth_token")
	if token == "" {
		return "", fmt.Errorf("%w: authorization URL has no oauth_token", shared.ErrAuthorizeFailed)
	}
	return token, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP handles the redirect once, checking oauth_token before handing the verifier to the waiting command.
//
// Requests missing oauth_token or oauth_verifier are rejected without ending the flow; a denial,
// a token mismatch or a verifier is delivered as the single result.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.callbackHit {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("denied") != "" {
		h.deliver(OAuthResult{err: fmt.Errorf("%w: authorization was denied", shared.ErrOAuthExchange)})
		http.Error(w, "Authorization denied", http.StatusBadRequest)
		return
	}

	token := q.Get("oauth_token")
	if token == "" {
		http.Error(w, "Missing oauth_token", http.StatusBadRequest)
		return
	}
	if token != h.requestToken {
		h.deliver(OAuthResult{err: fmt.Errorf("%w: callback token does not match", shared.ErrInvalidState)})
		http.Error(w, "Invalid oauth_token parameter", http.StatusBadRequest)
		return
	}

	verifier := q.Get("oauth_verifier")
	if verifier == "" {
		http.Error(w, "Missing oauth_verifier", http.StatusBadRequest)
		return
	}

	h.deliver(OAuthResult{Verifier: verifier})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>Discogs Connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Discogs account authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// deliver marks the callback as used and sends result. Callers hold mu.
func (h *OAuthHandler) deliver(result OAuthResult) {
	h.callbackHit = true
	h.Send(result)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
