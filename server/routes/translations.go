// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/translation"
	"codeberg.org/pixivfe/transmgr/i18n"
	"codeberg.org/pixivfe/transmgr/server/utils"
)

// TranslationsResponse is the body of GET /languages/{language}/translations.
type TranslationsResponse struct {
	Language       string         `json:"language"`
	SourceLanguage string         `json:"source_language"`
	Filter         string         `json:"filter,omitempty"`
	Group          string         `json:"group,omitempty"`
	Groups         []string       `json:"groups"`
	Translations   catalog.Merged `json:"translations"`
}

// TranslationResponse echoes a stored translation.
type TranslationResponse struct {
	Language string `json:"language"`
	Group    string `json:"group"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// requireLanguage returns a 404 error when language is not stored.
func requireLanguage(ctx context.Context, m *translation.Manager, language string) error {
	exists, err := m.LanguageExists(ctx, language)
	if err != nil {
		return err
	}

	if !exists {
		return i18n.NewUserError(ctx, fmt.Errorf("%w: %s", translation.ErrUnknownLanguage, language),
			"The language {{.Language}} does not exist.", "Language", language)
	}

	return nil
}

// Translations handles GET /languages/{language}/translations.
//
// The optional filter query parameter narrows the entries by substring, the
// group parameter to one short-key group or string namespace.
func (api *API) Translations(w http.ResponseWriter, r *http.Request) error {
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

	filter := strings.TrimSpace(utils.GetQueryParam(r, "filter"))
	group := utils.GetQueryParam(r, "group")

	merged, err := m.FilterTranslationsFor(r.Context(), language, filter)
	if err != nil {
		return err
	}

	groups, err := m.AllShortKeyGroupsFor(r.Context(), m.SourceLanguage())
	if err != nil {
		return err
	}

	if groups == nil {
		groups = []string{}
	}

	return writeJSON(w, http.StatusOK, TranslationsResponse{
		Language:       language,
		SourceLanguage: m.SourceLanguage(),
		Filter:         filter,
		Group:          group,
		Groups:         groups,
		Translations:   translation.OnlyGroup(merged, group),
	})
}

// StoreTranslation handles POST /languages/{language}/translations.
//
// The body is a translation.Payload. It is stored as a short key when it
// names a group, as a string key otherwise. An unknown language is created.
func (api *API) StoreTranslation(w http.ResponseWriter, r *http.Request) error {
	language, err := pathLanguage(r)
	if err != nil {
		return err
	}

	body, err := readBody(r)
	if err != nil {
		return err
	}

	payload := payloadFrom(body)
	isShortKey := payload.Group != ""

	return api.add(w, r, language, payload, isShortKey, http.StatusCreated)
}

// UpdateTranslation handles PUT /languages/{language}/translations.
//
// The body holds a full group name, "settings", "vendor::settings", "string"
// or "vendor::string", with the key and value. Groups ending in "string"
// address string keys.
func (api *API) UpdateTranslation(w http.ResponseWriter, r *http.Request) error {
	language, err := pathLanguage(r)
	if err != nil {
		return err
	}

	body, err := readBody(r)
	if err != nil {
		return err
	}

	payload := payloadFrom(body)
	group := payload.Group

	if group == "" {
		group = catalog.StringNamespace
	}

	payload.Namespace, payload.Group = catalog.SplitNamespace(group)
	isShortKey := !catalog.IsStringNamespace(group)

	return api.add(w, r, language, payload, isShortKey, http.StatusOK)
}

func (api *API) add(w http.ResponseWriter, r *http.Request, language string, payload translation.Payload, isShortKey bool, status int) error {
	if payload.Key == "" {
		return i18n.NewUserError(r.Context(), translation.ErrEmptyKey, "The translation key is required.")
	}

	m, release, err := api.manager(r.Context())
	if err != nil {
		return err
	}
	defer release()

	// The language is created on demand by the driver.
	if err := m.Add(r.Context(), payload, language, isShortKey); err != nil {
		return err
	}

	group := catalog.JoinNamespace(payload.Namespace, catalog.StringNamespace)
	if isShortKey {
		group = catalog.JoinNamespace(payload.Namespace, payload.Group)
	}

	return writeJSON(w, status, TranslationResponse{
		Language: language,
		Group:    group,
		Key:      payload.Key,
		Value:    payload.Value,
	})
}

func payloadFrom(body gjson.Result) translation.Payload {
	return translation.Payload{
		Namespace: strings.TrimSpace(body.Get("namespace").String()),
		Group:     strings.TrimSpace(body.Get("group").String()),
		Key:       body.Get("key").String(),
		Value:     body.Get("value").String(),
	}
}
