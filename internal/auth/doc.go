// Package auth holds the Discogs OAuth 1.0a handshake and bearer token verification.
//
// [StateCodec] carries the request-token pair between the authorize and callback legs inside
// an encrypted, expiring token, so no session table exists. [Handshake] orchestrates the flow
// against a [Provider]. [TokenVerifier] resolves the calling user from an HS256 bearer token.
package auth
