// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/core/audit"
	"codeberg.org/pixivfe/transmgr/server/request_context"
	"codeberg.org/pixivfe/transmgr/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// The handler's output is buffered in an httptest.ResponseRecorder and any
// returned error is stored in the request context. Then:
//   - a returned error discards the buffered response and writes a JSON error
//     body, with the status given by routes.StatusFor;
//   - otherwise the buffered response is written to the client.
//
// Finally, it logs the completed request via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToUser,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		r = r.WithContext(span.Begin(r.Context()))
		defer span.End()

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		if err != nil {
			ctx.StatusCode = routes.StatusFor(err)

			routes.ErrorResponse(w, r)
		} else {
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.End()

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}
