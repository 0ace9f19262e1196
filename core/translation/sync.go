// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/storage"
)

// ErrUnknownLanguage is returned when a named language is not stored.
var ErrUnknownLanguage = errors.New("unknown language")

// Synchronise copies every translation of language from one driver to the
// other, or of every language of from when language is empty. Languages
// missing in to are created with their name. Values already in to are
// replaced. It returns the number of translations written.
func Synchronise(ctx context.Context, from, to storage.Driver, language string) (int, error) {
	languages, err := from.AllLanguages(ctx)
	if err != nil {
		return 0, err
	}

	codes := languages.Codes()

	if language != "" {
		if _, ok := languages[language]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
		}

		codes = []string{language}
	}

	written := 0

	for _, code := range codes {
		n, err := synchroniseLanguage(ctx, from, to, code, languages[code])
		written += n

		if err != nil {
			return written, err
		}
	}

	return written, nil
}

func synchroniseLanguage(ctx context.Context, from, to storage.Driver, language, name string) (int, error) {
	exists, err := to.LanguageExists(ctx, language)
	if err != nil {
		return 0, err
	}

	if !exists {
		if err := to.AddLanguage(ctx, language, name); err != nil && !storage.IsLanguageExists(err) {
			return 0, err
		}
	}

	translations, err := storage.AllTranslationsFor(ctx, from, language)
	if err != nil {
		return 0, err
	}

	written := 0

	for _, group := range slices.Sorted(maps.Keys(translations.ShortKeys)) {
		flat := translations.ShortKeys[group].Flatten()

		for _, key := range slices.Sorted(maps.Keys(flat)) {
			if err := to.AddShortKeyTranslation(ctx, language, group, key, flat[key]); err != nil {
				return written, err
			}

			written++
		}
	}

	for _, namespace := range slices.Sorted(maps.Keys(translations.StringKeys)) {
		keys := translations.StringKeys[namespace]

		for _, key := range slices.Sorted(maps.Keys(keys)) {
			if err := to.AddStringKeyTranslation(ctx, language, namespace, key, keys[key]); err != nil {
				return written, err
			}

			written++
		}
	}

	log.Info().
		Str("sys", "translation").
		Str("language", language).
		Int("count", written).
		Msg("Synchronised translations")

	return written, nil
}
