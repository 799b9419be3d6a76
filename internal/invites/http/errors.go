package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// retryAfterSeconds is advertised on 503s caused by storage contention.
const retryAfterSeconds = "2"

// writeServiceError maps service errors to a status and a short message.
// Internal details are logged and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusForbidden, service.ErrUnauthorized.Error())
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, service.ErrNotFound.Error())
	case errors.Is(err, service.ErrExpired):
		httpx.WriteError(w, http.StatusGone, service.ErrExpired.Error())
	case errors.Is(err, service.ErrAlreadyConsumed):
		httpx.WriteError(w, http.StatusConflict, service.ErrAlreadyConsumed.Error())
	case errors.Is(err, service.ErrAccountExists):
		httpx.WriteError(w, http.StatusConflict, service.ErrAccountExists.Error())
	case errors.Is(err, service.ErrTransientStorage):
		slogx.FromContext(r.Context()).Warn(fallback, "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		httpx.WriteError(w, http.StatusServiceUnavailable, service.ErrTransientStorage.Error())
	default:
		slogx.FromContext(r.Context()).Error(fallback, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

// validationMessage strips the sentinel prefix, leaving e.g.
// "email must be a valid email address".
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, service.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}
