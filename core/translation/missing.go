// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

// FindMissingTranslations returns the scanned keys that language does not
// store, with the scanned (empty) values.
//
// Presence decides, not content: a key stored with an empty value is not
// missing. A short key is missing unless a leaf or a branch exists at exactly
// its dotted path, so a stored leaf where the scan expects a subtree leaves
// the deeper keys missing.
func (m *Manager) FindMissingTranslations(ctx context.Context, language string) (catalog.CombinedTranslations, error) {
	if m.opts.Scanner == nil {
		return catalog.CombinedTranslations{}, errNoScanner
	}

	scanned, err := m.opts.Scanner.FindTranslations(ctx)
	if err != nil {
		return catalog.CombinedTranslations{}, err
	}

	stored, err := m.AllTranslationsFor(ctx, language)
	if err != nil {
		return catalog.CombinedTranslations{}, err
	}

	return missingFrom(scanned, stored), nil
}

// missingFrom returns the entries of scanned that have no counterpart in
// stored.
func missingFrom(scanned, stored catalog.CombinedTranslations) catalog.CombinedTranslations {
	missing := catalog.NewCombined()

	for group, tree := range scanned.ShortKeys {
		have := stored.ShortKeys[group]

		for _, key := range tree.Keys() {
			if !have.Has(key) {
				node, _ := tree.Lookup(key)
				missing.SetShortKey(group, key, node.Text())
			}
		}
	}

	for namespace, keys := range scanned.StringKeys {
		have := stored.StringKeys[namespace]

		for key, value := range keys {
			if _, ok := have[key]; !ok {
				missing.SetStringKey(namespace, key, value)
			}
		}
	}

	return missing
}

// SaveMissingTranslations stores every missing key of language, or of every
// known language when language is empty. Existing keys are never written.
//
// Values are empty unless the source language runs with CopyKeyToValue, where
// string keys take the key as value, or a Translator is configured for the
// other languages. A failed machine translation is stored as PrefixError, the
// error and the source text, and the run continues.
func (m *Manager) SaveMissingTranslations(ctx context.Context, language string) error {
	languages := []string{language}

	if language == "" {
		all, err := m.AllLanguages(ctx)
		if err != nil {
			return err
		}

		languages = all.Codes()
	}

	for _, code := range languages {
		if err := m.saveMissing(ctx, code); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) saveMissing(ctx context.Context, language string) error {
	missing, err := m.FindMissingTranslations(ctx, language)
	if err != nil {
		return err
	}

	_, err = m.SaveMissingFrom(ctx, language, missing)

	return err
}

// SaveMissingFrom stores missing, as returned by FindMissingTranslations for
// language, and returns the number of keys written. Values are seeded as in
// SaveMissingTranslations.
func (m *Manager) SaveMissingFrom(ctx context.Context, language string, missing catalog.CombinedTranslations) (int, error) {
	total := missing.Len()
	if total == 0 {
		return 0, nil
	}

	var (
		source catalog.CombinedTranslations
		err    error
	)

	if m.opts.Translator != nil && language != m.opts.SourceLanguage {
		source, err = m.AllTranslationsFor(ctx, m.opts.SourceLanguage)
		if err != nil {
			return 0, err
		}
	}

	done := 0

	step := func() {
		done++

		if m.opts.Progress != nil {
			m.opts.Progress(language, done, total)
		}
	}

	for _, group := range slices.Sorted(maps.Keys(missing.ShortKeys)) {
		for _, key := range missing.ShortKeys[group].Keys() {
			if err := ctx.Err(); err != nil {
				return done, err
			}

			value := m.seedValue(ctx, language, sourceShortKey(source, group, key), "")
			if err := m.AddShortKeyTranslation(ctx, language, group, key, value); err != nil {
				return done, err
			}

			step()
		}
	}

	for _, namespace := range slices.Sorted(maps.Keys(missing.StringKeys)) {
		for _, key := range slices.Sorted(maps.Keys(missing.StringKeys[namespace])) {
			if err := ctx.Err(); err != nil {
				return done, err
			}

			text := source.StringKeys[namespace][key]
			if text == "" {
				text = key
			}

			value := m.seedValue(ctx, language, text, key)
			if err := m.AddStringKeyTranslation(ctx, language, namespace, key, value); err != nil {
				return done, err
			}

			step()
		}
	}

	log.Info().
		Str("sys", "translation").
		Str("language", language).
		Int("count", total).
		Msg("Saved missing translations")

	return done, nil
}

// seedValue returns the value stored for a missing key. text is the source
// language text; stringKey is the key itself for string keys and empty for
// short keys.
func (m *Manager) seedValue(ctx context.Context, language, text, stringKey string) string {
	if language == m.opts.SourceLanguage {
		if stringKey != "" && m.opts.CopyKeyToValue {
			return stringKey
		}

		return ""
	}

	if m.opts.Translator == nil || text == "" {
		return ""
	}

	translated, err := m.opts.Translator.Translate(ctx, text, m.opts.SourceLanguage, language)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sys", "translation").
			Str("language", language).
			Str("text", text).
			Msg("Machine translation failed")

		return m.opts.PrefixError + err.Error() + text
	}

	return m.opts.PrefixNew + translated
}

func sourceShortKey(source catalog.CombinedTranslations, group, key string) string {
	node, ok := source.ShortKeys[group].Lookup(key)
	if !ok || !node.IsLeaf() {
		return ""
	}

	return node.Value
}

// NormalizedKeys returns the union of the keys stored for every language,
// with empty values.
func (m *Manager) NormalizedKeys(ctx context.Context) (catalog.CombinedTranslations, error) {
	all, err := m.AllTranslations(ctx)
	if err != nil {
		return catalog.CombinedTranslations{}, err
	}

	keys := catalog.NewCombined()

	for _, code := range slices.Sorted(maps.Keys(all)) {
		translations := all[code]

		for group, tree := range translations.ShortKeys {
			for _, key := range tree.Keys() {
				keys.SetShortKey(group, key, "")
			}
		}

		for namespace, values := range translations.StringKeys {
			for key := range values {
				keys.SetStringKey(namespace, key, "")
			}
		}
	}

	return keys, nil
}
