// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/pixivfe/transmgr/server/middleware"
	"codeberg.org/pixivfe/transmgr/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain.
func (router *Router) RegisterMiddleware() {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all responses need this
}
