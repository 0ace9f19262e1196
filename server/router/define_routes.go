// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/i18n"
	"codeberg.org/pixivfe/transmgr/server/middleware"
	"codeberg.org/pixivfe/transmgr/server/routes"
)

var errNotFound = errors.New("not found")

// DefineRoutes registers the API handlers of api.
func (router *Router) DefineRoutes(api *routes.API) {
	router.HandleFunc("GET /healthz", middleware.CatchError(api.Health))

	// Language routes
	router.HandleFunc("GET /languages", middleware.CatchError(api.ListLanguages))
	router.HandleFunc("POST /languages", middleware.CatchError(api.AddLanguage))

	// Translation routes
	router.HandleFunc("GET /languages/{language}/translations", middleware.CatchError(api.Translations))
	router.HandleFunc("POST /languages/{language}/translations", middleware.CatchError(api.StoreTranslation))
	router.HandleFunc("PUT /languages/{language}/translations", middleware.CatchError(api.UpdateTranslation))

	// Missing key routes
	router.HandleFunc("GET /languages/{language}/missing", middleware.CatchError(api.Missing))
	router.HandleFunc("POST /languages/{language}/missing", middleware.CatchError(api.SaveMissing))

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}

	// Everything else answers with a JSON 404.
	router.HandleFunc("/", middleware.CatchError(func(_ http.ResponseWriter, r *http.Request) error {
		return routes.NewHTTPError(http.StatusNotFound,
			i18n.NewUserError(r.Context(), errNotFound, "The requested resource was not found."))
	}))
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	err := flightRecorder.Start()
	if err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
