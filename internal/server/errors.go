package server

import (
	"errors"
	"net/http"

	"github.com/desertthunder/bookshelf/internal/shared"
)

// StatusFor maps an error onto the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotConnected),
		errors.Is(err, shared.ErrInvalidState),
		errors.Is(err, shared.ErrExpiredState),
		errors.Is(err, shared.ErrOAuthExchange),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAuthorizeFailed):
		return http.StatusInternalServerError
	case errors.Is(err, shared.ErrCollectionFetch), errors.Is(err, shared.ErrRemoteAPI) && !errors.Is(err, shared.ErrNotFound):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeErr reports err with its mapped status. Server-side failures are logged in full and the
// client only sees a fixed message.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r), "err", err)
		message = "internal server error"
		if errors.Is(err, shared.ErrAuthorizeFailed) {
			message = shared.ErrAuthorizeFailed.Error()
		}
	}
	WriteError(w, status, message)
}
