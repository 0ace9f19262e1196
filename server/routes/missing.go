// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

// MissingResponse lists the keys used in sources but not stored for a
// language.
type MissingResponse struct {
	Language string                       `json:"language"`
	Count    int                          `json:"count"`
	Missing  catalog.CombinedTranslations `json:"missing"`
	Saved    bool                         `json:"saved"`
}

// Missing handles GET /languages/{language}/missing.
func (api *API) Missing(w http.ResponseWriter, r *http.Request) error {
	return api.missing(w, r, false)
}

// SaveMissing handles POST /languages/{language}/missing. It stores the
// missing keys and returns the set that was written. Saved is false when
// nothing was missing.
func (api *API) SaveMissing(w http.ResponseWriter, r *http.Request) error {
	return api.missing(w, r, true)
}

func (api *API) missing(w http.ResponseWriter, r *http.Request, save bool) error {
	language, err := pathLanguage(r)
	if err != nil {
		return err
	}

	m, release, err := api.manager(r.Context())
	if err != nil {
		return err
	}
	defer release()

	if err := requireLanguage(r.Context(), m, language); err != nil {
		return err
	}

	missing, err := m.FindMissingTranslations(r.Context(), language)
	if err != nil {
		return err
	}

	saved := 0

	if save {
		saved, err = m.SaveMissingFrom(r.Context(), language, missing)
		if err != nil {
			return err
		}
	}

	return writeJSON(w, http.StatusOK, MissingResponse{
		Language: language,
		Count:    missing.Len(),
		Missing:  missing,
		Saved:    saved > 0,
	})
}
