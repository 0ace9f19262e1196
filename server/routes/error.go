// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/translation"
	"codeberg.org/pixivfe/transmgr/i18n"
	"codeberg.org/pixivfe/transmgr/server/request_context"
)

// HTTPError is an error carrying the status code of the response.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError wraps err with a response status.
func NewHTTPError(statusCode int, err error) error {
	return &HTTPError{StatusCode: statusCode, Err: err}
}

// StatusFor returns the response status of an error returned by a handler.
func StatusFor(err error) int {
	var httpErr *HTTPError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &httpErr):
		return httpErr.StatusCode
	case storage.IsLanguageExists(err):
		return http.StatusConflict
	case errors.Is(err, translation.ErrUnknownLanguage):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidLanguage), errors.Is(err, translation.ErrEmptyKey):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse writes the error stored in the request context as JSON.
// Internal errors are replaced by a generic message unless they carry a
// translated one.
func ErrorResponse(w http.ResponseWriter, r *http.Request) {
	rc := request_context.FromRequest(r)

	message := rc.RequestError.Error()

	var userErr *i18n.UserError
	if rc.StatusCode >= http.StatusInternalServerError && !errors.As(rc.RequestError, &userErr) {
		message = i18n.Tr(r.Context(), "Something went wrong while handling the request.")
	}

	w.Header().Set("Cache-Control", "no-store")

	if err := writeJSON(w, rc.StatusCode, ErrorBody{
		Error:     message,
		Status:    rc.StatusCode,
		RequestID: rc.RequestID,
	}); err != nil {
		log.Err(err).Msg("Failed to write error response")
	}
}
