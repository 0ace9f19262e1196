// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"

	"github.com/spf13/afero"

	"codeberg.org/pixivfe/transmgr/core/autotranslate"
	"codeberg.org/pixivfe/transmgr/core/scanner"
	"codeberg.org/pixivfe/transmgr/core/storage/dbstore"
	"codeberg.org/pixivfe/transmgr/core/translation"
)

// DriverOptions returns the storage backend settings.
func (cfg *ServerConfig) DriverOptions(fs afero.Fs) translation.DriverOptions {
	return translation.DriverOptions{
		Type:     cfg.Translation.Driver,
		Fs:       fs,
		LangPath: cfg.Translation.LangPath,
		Database: dbstore.Options{
			Driver:            cfg.Database.Driver,
			DSN:               cfg.Database.DSN,
			LanguagesTable:    cfg.Database.LanguagesTable,
			TranslationsTable: cfg.Database.TranslationsTable,
		},
	}
}

// ScannerOptions returns the source scanner settings.
func (cfg *ServerConfig) ScannerOptions() scanner.Options {
	return scanner.Options{
		Paths:       cfg.Translation.ScanPaths,
		Methods:     cfg.Translation.TranslationMethods,
		Excludes:    cfg.Translation.ScanExcludes,
		Concurrency: cfg.Translation.ScanConcurrency,
	}
}

// ManagerOptions builds the options of a translation.Manager reading
// sources from fs, the OS filesystem when nil. The translator is only set
// when auto-translation is enabled, behind a cache unless CacheSize is zero.
func (cfg *ServerConfig) ManagerOptions(fs afero.Fs) (translation.Options, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	scan, err := scanner.New(fs, cfg.ScannerOptions())
	if err != nil {
		return translation.Options{}, fmt.Errorf("failed to create scanner: %w", err)
	}

	opts := translation.Options{
		SourceLanguage: cfg.Translation.SourceLocale,
		Scanner:        scan,
		PrefixNew:      cfg.AutoTranslate.PrefixNew,
		PrefixError:    cfg.AutoTranslate.PrefixError,
		CopyKeyToValue: cfg.Translation.CopyKeyToValue,
	}

	if cfg.AutoTranslate.Enabled {
		translator, err := autotranslate.NewHTTP(autotranslate.Options{
			Endpoint: cfg.AutoTranslate.Endpoint,
			APIKey:   cfg.AutoTranslate.APIKey,
			Interval: cfg.AutoTranslate.Interval,
			Burst:    cfg.AutoTranslate.Burst,
			Timeout:  cfg.AutoTranslate.Timeout,
		})
		if err != nil {
			return translation.Options{}, fmt.Errorf("failed to create translator: %w", err)
		}

		opts.Translator = translator

		if cfg.AutoTranslate.CacheSize > 0 {
			cached, err := autotranslate.NewCached(translator, cfg.AutoTranslate.CacheSize, cfg.AutoTranslate.CompressCache)
			if err != nil {
				return translation.Options{}, fmt.Errorf("failed to create translation cache: %w", err)
			}

			opts.Translator = cached
		}
	}

	return opts, nil
}
