// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package translation reconciles the translation keys used by an application
with the translations held by a storage driver.

A Manager wraps one storage.Driver. It finds the keys the scanner sees in
source files that the driver does not store, seeds them, and builds the
side-by-side views used by editors. All logic here runs through the
storage.Driver interface and works the same for every backend.
*/
package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"codeberg.org/pixivfe/transmgr/core/autotranslate"
	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

// DefaultSourceLanguage is used when Options.SourceLanguage is empty.
const DefaultSourceLanguage = "en"

var errNoScanner = errors.New("no scanner configured")

// Finder returns the translation keys used by an application, with empty
// values.
type Finder interface {
	FindTranslations(ctx context.Context) (catalog.CombinedTranslations, error)
}

// Options configures a Manager.
type Options struct {
	// SourceLanguage is the reference language for merges and translations.
	SourceLanguage string

	// Scanner finds the keys used by the application. Required by the
	// missing-key operations only.
	Scanner Finder

	// Translator fills missing values of non-source languages when set.
	Translator autotranslate.Translator
	// PrefixNew is prepended to machine translated values.
	PrefixNew string
	// PrefixError is prepended to the error and source text of failed
	// machine translations.
	PrefixError string

	// CopyKeyToValue stores missing string keys of the source language with
	// the key as value.
	CopyKeyToValue bool

	// Events receives TranslationAdded notifications. A Manager without one
	// gets its own.
	Events *Events

	// Progress is called after every key written by SaveMissingTranslations.
	Progress func(language string, done, total int)
}

// Manager runs the reconciliation operations against one driver. Every
// storage.Driver method is available on the Manager itself.
type Manager struct {
	storage.Driver

	opts Options
}

// New returns a Manager for driver.
func New(driver storage.Driver, opts Options) *Manager {
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = DefaultSourceLanguage
	}

	if opts.Events == nil {
		opts.Events = NewEvents()
	}

	return &Manager{Driver: driver, opts: opts}
}

// SourceLanguage returns the configured reference language.
func (m *Manager) SourceLanguage() string {
	return m.opts.SourceLanguage
}

// Events returns the dispatcher used for TranslationAdded notifications.
func (m *Manager) Events() *Events {
	return m.opts.Events
}

// Subscribe registers fn for every TranslationAdded emitted through this
// Manager's dispatcher. The returned function unregisters it.
func (m *Manager) Subscribe(fn func(context.Context, TranslationAdded)) (unsubscribe func()) {
	return m.opts.Events.Subscribe(fn)
}

// AllTranslationsFor reads both kinds of translations of language.
func (m *Manager) AllTranslationsFor(ctx context.Context, language string) (catalog.CombinedTranslations, error) {
	return storage.AllTranslationsFor(ctx, m.Driver, language)
}

// AllTranslations reads the translations of every language, keyed by code.
func (m *Manager) AllTranslations(ctx context.Context) (map[string]catalog.CombinedTranslations, error) {
	languages, err := m.AllLanguages(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]catalog.CombinedTranslations, len(languages))

	for _, code := range languages.Codes() {
		translations, err := m.AllTranslationsFor(ctx, code)
		if err != nil {
			return nil, err
		}

		out[code] = translations
	}

	return out, nil
}

// AddLanguage creates language through the driver. An empty name is
// replaced with the English name of the code, or the code itself when
// x/text does not know it.
func (m *Manager) AddLanguage(ctx context.Context, language, name string) error {
	if name == "" {
		name = LanguageName(language)
	}

	return m.Driver.AddLanguage(ctx, language, name)
}

// LanguageName returns the English display name of a language code.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}

	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}

	return code
}

// Payload is a translation submitted by an editor.
type Payload struct {
	// Namespace is the optional vendor name.
	Namespace string `json:"namespace"`
	// Group selects a short-key group. It is ignored for string keys.
	Group string `json:"group"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrEmptyKey is returned by Add for a payload without key.
var ErrEmptyKey = errors.New("translation key is empty")

// Add stores p for language as a short key in group [namespace::]group when
// isShortKey is set, and as a string key in [namespace::]string otherwise.
// Subscribers are notified after a successful write.
func (m *Manager) Add(ctx context.Context, p Payload, language string, isShortKey bool) error {
	if p.Key == "" {
		return ErrEmptyKey
	}

	var (
		group string
		err   error
	)

	if isShortKey {
		group = catalog.JoinNamespace(p.Namespace, p.Group)
		err = m.AddShortKeyTranslation(ctx, language, group, p.Key, p.Value)
	} else {
		group = catalog.JoinNamespace(p.Namespace, catalog.StringNamespace)
		err = m.AddStringKeyTranslation(ctx, language, group, p.Key, p.Value)
	}

	if err != nil {
		return fmt.Errorf("failed to add %s translation %q: %w", language, p.Key, err)
	}

	log.Debug().
		Str("sys", "translation").
		Str("language", language).
		Str("group", group).
		Str("key", p.Key).
		Msg("Added translation")

	m.opts.Events.publish(ctx, TranslationAdded{
		Language: language,
		Group:    group,
		Key:      p.Key,
		Value:    p.Value,
	})

	return nil
}
