// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/i18n"
	"codeberg.org/pixivfe/transmgr/server/utils"
)

// maxBodySize bounds request bodies. Payloads are single translations.
const maxBodySize = 1 << 20

var (
	errInvalidJSON  = errors.New("request body is not valid JSON")
	errBodyTooLarge = errors.New("request body is too large")
)

// writeJSON writes v as the JSON response body with status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// readBody reads and validates a JSON request body.
func readBody(r *http.Request) (gjson.Result, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(data) > maxBodySize {
		return gjson.Result{}, NewHTTPError(http.StatusRequestEntityTooLarge,
			i18n.NewUserError(r.Context(), errBodyTooLarge, "The request body is too large."))
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, NewHTTPError(http.StatusBadRequest,
			i18n.NewUserError(r.Context(), errInvalidJSON, "The request body is not valid JSON."))
	}

	return gjson.ParseBytes(data), nil
}

// pathLanguage returns the {language} path variable after validating it.
func pathLanguage(r *http.Request) (string, error) {
	code := utils.GetPathVar(r, "language")

	if err := storage.ValidateLanguage(code); err != nil {
		return "", i18n.NewUserError(r.Context(), err, "{{.Language}} is not a valid language code.", "Language", code)
	}

	return code, nil
}
