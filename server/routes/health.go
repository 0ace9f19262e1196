// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/pixivfe/transmgr/server/utils"
)

// Health handles GET /healthz by listing the languages of the backend.
func (api *API) Health(w http.ResponseWriter, r *http.Request) error {
	stop := utils.StartTiming(r.Context(), "storage", "Storage backend")

	m, release, err := api.manager(r.Context())
	if err != nil {
		return NewHTTPError(http.StatusServiceUnavailable, err)
	}
	defer release()

	languages, err := m.AllLanguages(r.Context())
	if err != nil {
		return NewHTTPError(http.StatusServiceUnavailable, err)
	}

	stop()

	return writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"languages": len(languages),
	})
}
