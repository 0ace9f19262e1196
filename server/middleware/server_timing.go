// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
)

// WithServerTiming collects Server-Timing metrics started by handlers, such
// as the translator calls made while saving missing keys.
func WithServerTiming(w http.ResponseWriter, r *http.Request, next http.Handler) {
	servertiming.Middleware(next, nil).ServeHTTP(w, r)
}
