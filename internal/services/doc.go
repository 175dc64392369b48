// Package services implements the Discogs HTTP client behind the [Discogs] interface.
//
// # OAuth 1.0a
//
// [DiscogsService] signs requests with github.com/dghubble/oauth1 using the consumer pair from
// config and the user's access pair. It also exposes the request-token, authorization-URL and
// access-token steps so it can serve as the provider for auth.Handshake.
//
// # Transport
//
// A single transport is shared by token and API calls. It sets the User-Agent Discogs requires
// and waits on a golang.org/x/time/rate limiter before each request. Each call is bounded by the
// configured request timeout.
//
// # Error Handling
//
// Failures use the sentinel errors from the shared package:
//   - [shared.ErrNotConnected] : the credential is empty or has no username
//   - [shared.ErrNotFound] : Discogs answered 404
//   - [shared.ErrRemoteAPI] : transport failure, any other non-2xx, or an undecodable body
//
// Non-2xx responses also carry a [StatusError] reachable with errors.As (see [IsStatus]).
//
// # Response Shapes
//
// Collection items and releases are returned as generic JSON maps. Field extraction is left to
// the normalization in the tasks package, which branches on field presence.
package services
