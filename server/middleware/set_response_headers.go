// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/server/request_context"
)

// baseHeaders defines the default headers to be set in responses.
//
// Transmgr-Version, Transmgr-Revision and X-Request-Id are added
// dynamically in SetResponseHeaders.
var baseHeaders = http.Header{
	"Referrer-Policy":         {"no-referrer"},
	"X-Frame-Options":         {"DENY"},
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'; frame-ancestors 'none'"},
	"Cache-Control":           {"no-store"},
	"Vary":                    {"Accept-Language"},
}

// SetResponseHeaders adds default headers to HTTP responses. It must run
// after set_request_context.WithRequestContext.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	headers.Set("Transmgr-Version", config.BuildVersion)
	headers.Set("Transmgr-Revision", config.Global.Build.Revision())

	if id := request_context.FromRequest(r).RequestID; id != "" {
		headers.Set("X-Request-Id", id)
	}

	next.ServeHTTP(w, r)
}
