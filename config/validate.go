// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/server/utils"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidSourceLocale          = errors.New("invalid Translation.SourceLocale")
	errEmptyLangPath                = errors.New("Translation.LangPath cannot be empty with the file driver")
	errEmptyDSN                     = errors.New("Database.DSN cannot be empty with the database driver")
	errInvalidDatabaseDriver        = errors.New("invalid Database.Driver")
	errAutoTranslateEndpoint        = errors.New("AutoTranslate.Endpoint is required when auto-translation is enabled")
	errInvalidAutoTranslateEndpoint = errors.New("invalid AutoTranslate.Endpoint")
	errInvalidAutoTranslateBurst    = errors.New("AutoTranslate.Burst must be positive")
	errInvalidAutoTranslateCache    = errors.New("AutoTranslate.CacheSize cannot be negative")
	errInvalidLogFormat             = errors.New("invalid Log.Format")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	if err := cfg.validateTranslation(); err != nil {
		return err
	}

	if err := cfg.validateAutoTranslate(); err != nil {
		return err
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		// Set TCP defaults
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8383"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	switch {
	case cfg.Basic.RawUnixSocketPermissions == "":
		cfg.Basic.UnixSocketPermissions = 0o666
	case fileModeOctalRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
		rawModeUint64, _ := strconv.ParseUint(cfg.Basic.RawUnixSocketPermissions, 8, 32)

		cfg.Basic.UnixSocketPermissions = os.FileMode(rawModeUint64)
	case fileModeStringRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
		mode := os.FileMode(0)

		for i, c := range cfg.Basic.RawUnixSocketPermissions {
			if c != '-' {
				const bitsInByte = 8

				mode |= 1 << (bitsInByte - i)
			}
		}

		cfg.Basic.UnixSocketPermissions = mode
	default:
		return errUnixSocketInvalidPermissions
	}

	if cfg.Basic.UnixSocketUser != "" {
		lookup := user.Lookup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketUser) {
			lookup = user.LookupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketUser); err != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if cfg.Basic.UnixSocketGroup != "" {
		lookup := user.LookupGroup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketGroup) {
			lookup = user.LookupGroupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketGroup); err != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

func (cfg *ServerConfig) validateTranslation() error {
	driver, err := storage.ParseDriverType(cfg.Translation.RawDriver)
	if err != nil {
		return err
	}

	cfg.Translation.Driver = driver

	if _, err := language.Parse(cfg.Translation.SourceLocale); err != nil {
		return fmt.Errorf("%w %q: %w", errInvalidSourceLocale, cfg.Translation.SourceLocale, err)
	}

	if err := storage.ValidateLanguage(cfg.Translation.SourceLocale); err != nil {
		return fmt.Errorf("%w: %w", errInvalidSourceLocale, err)
	}

	switch driver {
	case storage.FileDriver:
		if cfg.Translation.LangPath == "" {
			return errEmptyLangPath
		}
	case storage.DatabaseDriver:
		switch cfg.Database.Driver {
		case "sqlite3", "sqlite", "postgres", "postgresql", "pgsql":
			// valid
		default:
			return fmt.Errorf("%w: %q", errInvalidDatabaseDriver, cfg.Database.Driver)
		}

		if cfg.Database.DSN == "" {
			return errEmptyDSN
		}
	}

	return nil
}

func (cfg *ServerConfig) validateAutoTranslate() error {
	if !cfg.AutoTranslate.Enabled {
		return nil
	}

	if cfg.AutoTranslate.Endpoint == "" {
		return errAutoTranslateEndpoint
	}

	endpoint, err := utils.ParseURL(cfg.AutoTranslate.Endpoint, "translator endpoint")
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidAutoTranslateEndpoint, err)
	}

	cfg.AutoTranslate.Endpoint = endpoint.String()

	if cfg.AutoTranslate.Burst < 1 {
		return errInvalidAutoTranslateBurst
	}

	if cfg.AutoTranslate.CacheSize < 0 {
		return errInvalidAutoTranslateCache
	}

	return nil
}
