// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"

	"codeberg.org/pixivfe/transmgr/server/middleware"
	"codeberg.org/pixivfe/transmgr/server/routes"
)

// Router wraps http.ServeMux and provides middleware chaining functionality.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
}

// NewRouter creates a Router serving api with the middleware chain
// installed.
func NewRouter(api *routes.API) *Router {
	router := &Router{
		ServeMux: http.NewServeMux(),
	}

	router.DefineRoutes(api)
	router.RegisterMiddleware()

	return router
}

// Use adds a middleware to the router's chain.
func (router *Router) Use(middleware middleware.Middleware) {
	router.middlewares = append(router.middlewares, middleware)
}

// serve runs router.middlewares[i] and every one after it, then the mux.
func (router *Router) serve(i int, w http.ResponseWriter, r *http.Request) {
	if i < len(router.middlewares) {
		router.middlewares[i](w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			router.serve(i+1, w, r)
		}))
	} else {
		router.ServeMux.ServeHTTP(w, r)
	}
}

// ServeHTTP runs the middleware chain.
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.serve(0, w, r)
}
