// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package storage defines the contract shared by the translation storage
// backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

// Driver reads and writes the translations of every language known to one
// backend.
//
// Adding a translation for an unknown language creates that language.
// Adding a translation for an existing key replaces its value.
type Driver interface {
	AllLanguages(ctx context.Context) (catalog.Languages, error)
	LanguageExists(ctx context.Context, language string) (bool, error)
	// AddLanguage fails with *LanguageExistsError if language is already known.
	AddLanguage(ctx context.Context, language, name string) error

	AllShortKeyTranslationsFor(ctx context.Context, language string) (map[string]catalog.Group, error)
	AllStringKeyTranslationsFor(ctx context.Context, language string) (map[string]map[string]string, error)
	// AllShortKeyGroupsFor returns the sorted short-key group names of language.
	AllShortKeyGroupsFor(ctx context.Context, language string) ([]string, error)

	AddShortKeyTranslation(ctx context.Context, language, group, key, value string) error
	AddStringKeyTranslation(ctx context.Context, language, namespace, key, value string) error
}

// LanguageExistsError is returned when creating a language that is already known.
type LanguageExistsError struct {
	Language string
}

func (e *LanguageExistsError) Error() string {
	return fmt.Sprintf("language %q already exists", e.Language)
}

// IsLanguageExists reports whether err is, or wraps, a *LanguageExistsError.
func IsLanguageExists(err error) bool {
	var target *LanguageExistsError

	return errors.As(err, &target)
}

// DriverType names a storage backend.
type DriverType string

// Supported storage backends.
const (
	FileDriver     DriverType = "file"
	DatabaseDriver DriverType = "database"
)

// ErrInvalidDriver is returned for an unknown backend name.
var ErrInvalidDriver = errors.New("invalid translation driver")

// ParseDriverType validates a backend name.
func ParseDriverType(name string) (DriverType, error) {
	switch t := DriverType(strings.ToLower(strings.TrimSpace(name))); t {
	case FileDriver, DatabaseDriver:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDriver, name)
	}
}

// AllTranslationsFor reads both kinds of translations of language.
func AllTranslationsFor(ctx context.Context, d Driver, language string) (catalog.CombinedTranslations, error) {
	shortKeys, err := d.AllShortKeyTranslationsFor(ctx, language)
	if err != nil {
		return catalog.CombinedTranslations{}, fmt.Errorf("failed to read short keys of %s: %w", language, err)
	}

	stringKeys, err := d.AllStringKeyTranslationsFor(ctx, language)
	if err != nil {
		return catalog.CombinedTranslations{}, fmt.Errorf("failed to read string keys of %s: %w", language, err)
	}

	return catalog.CombinedTranslations{ShortKeys: shortKeys, StringKeys: stringKeys}, nil
}

// ErrInvalidLanguage is returned for language codes that cannot name a
// directory or a row, such as "../en" or an empty string.
var ErrInvalidLanguage = errors.New("invalid language code")

var languagePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateLanguage checks that language is usable as a storage identifier.
func ValidateLanguage(language string) error {
	if !languagePattern.MatchString(language) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, language)
	}

	return nil
}
