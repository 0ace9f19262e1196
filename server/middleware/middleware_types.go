// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import "net/http"

// Middleware runs around next. It must call next.ServeHTTP to continue the chain.
type Middleware func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Wrap binds m to next.
func Wrap(m Middleware, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m(w, r, next)
	}
}
