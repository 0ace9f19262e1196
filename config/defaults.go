// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"time"

	"codeberg.org/pixivfe/transmgr/core/scanner"
	"codeberg.org/pixivfe/transmgr/core/storage/dbstore"
)

const (
	// Default pause between two auto-translate requests in milliseconds.
	defaultAutoTranslateIntervalMs = 200
	// Default auto-translate request timeout in seconds.
	defaultAutoTranslateTimeoutSeconds = 30
	// Default number of files read at once by the scanner.
	defaultScanConcurrency = 8
	// Default number of machine translations kept in memory.
	defaultAutoTranslateCacheSize = 1024
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	// Host and Port are filled by validateAndSet unless a unix socket is used.
	cfg.Basic.Host = ""
	cfg.Basic.Port = ""

	cfg.Translation.RawDriver = "file"
	cfg.Translation.SourceLocale = "en"
	cfg.Translation.LangPath = "./lang"
	cfg.Translation.ScanPaths = []string{"./app", "./resources/views"}
	cfg.Translation.ScanExcludes = append([]string(nil), scanner.DefaultExcludes...)
	cfg.Translation.TranslationMethods = append([]string(nil), scanner.DefaultMethods...)
	cfg.Translation.ScanConcurrency = defaultScanConcurrency
	cfg.Translation.CopyKeyToValue = false

	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "file:./data/translations.db"
	cfg.Database.LanguagesTable = dbstore.DefaultLanguagesTable
	cfg.Database.TranslationsTable = dbstore.DefaultTranslationsTable

	cfg.AutoTranslate.Enabled = false
	cfg.AutoTranslate.Interval = defaultAutoTranslateIntervalMs * time.Millisecond
	cfg.AutoTranslate.Burst = 1
	cfg.AutoTranslate.Timeout = defaultAutoTranslateTimeoutSeconds * time.Second
	cfg.AutoTranslate.PrefixNew = ""
	cfg.AutoTranslate.PrefixError = "ERROR translating: "
	cfg.AutoTranslate.CacheSize = defaultAutoTranslateCacheSize
	cfg.AutoTranslate.CompressCache = true

	cfg.Development.SaveResponses = false
	cfg.Development.ResponseSaveLocation = "/tmp/transmgr/responses"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Internationalization.StrictMissingKeys = false
}
