// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"strings"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/i18n"
)

// Language is one stored language.
type Language struct {
	Code string `json:"language"`
	Name string `json:"name"`
}

// LanguagesResponse is the body of GET /languages.
type LanguagesResponse struct {
	SourceLanguage string     `json:"source_language"`
	Languages      []Language `json:"languages"`
}

// ListLanguages handles GET /languages.
func (api *API) ListLanguages(w http.ResponseWriter, r *http.Request) error {
	m, release, err := api.manager(r.Context())
	if err != nil {
		return err
	}
	defer release()

	languages, err := m.AllLanguages(r.Context())
	if err != nil {
		return err
	}

	resp := LanguagesResponse{
		SourceLanguage: m.SourceLanguage(),
		Languages:      make([]Language, 0, len(languages)),
	}

	for _, code := range languages.Codes() {
		resp.Languages = append(resp.Languages, Language{Code: code, Name: languages[code]})
	}

	return writeJSON(w, http.StatusOK, resp)
}

// AddLanguage handles POST /languages with a {"language", "name"} body.
//
// It answers 409 when the language exists and 422 for an invalid code.
func (api *API) AddLanguage(w http.ResponseWriter, r *http.Request) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}

	code := strings.TrimSpace(body.Get("language").String())
	name := strings.TrimSpace(body.Get("name").String())

	if err := storage.ValidateLanguage(code); err != nil {
		return i18n.NewUserError(r.Context(), err, "{{.Language}} is not a valid language code.", "Language", code)
	}

	m, release, err := api.manager(r.Context())
	if err != nil {
		return err
	}
	defer release()

	if err := m.AddLanguage(r.Context(), code, name); err != nil {
		if storage.IsLanguageExists(err) {
			return i18n.NewUserError(r.Context(), err, "The language {{.Language}} already exists.", "Language", code)
		}

		return err
	}

	languages, err := m.AllLanguages(r.Context())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, Language{Code: code, Name: languages[code]})
}
