// Package server provides the Bookshelf HTTP API, its middleware, and the OAuth callback listener used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// "METHOD /path" patterns on an [http.ServeMux] and wraps the whole mux in the middleware chain,
// so middleware also sees unmatched routes and preflight requests.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
//
// # API
//
// [New] wires [Deps] into routes under /api. Every route except /health requires a bearer token
// verified by [auth.TokenVerifier]; the token subject is the local user id. Errors are reported as
// {"error": message, "code": status} with the status chosen by [StatusFor].
//
// Routes that talk to Discogs answer 503 until consumer credentials and the state key are configured.
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the Discogs redirect during `bookshelf discogs connect`. It accepts a single
// callback whose oauth_token matches the request token, and delivers the verifier through a channel.
package server
