// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/audit"
)

const (
	responseDirPermissions = 0o700
	logFilePermissions     = 0o666
)

var logLevels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

// setupAudit configures the global logger and the audit package.
func (cfg *ServerConfig) setupAudit() {
	if cfg.Development.InDevelopment {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if level, ok := logLevels[cfg.Log.Level]; ok {
		zerolog.SetGlobalLevel(level)
	}

	writers := []io.Writer{}

	for _, output := range cfg.Log.Outputs {
		if w := cfg.logWriter(output); w != nil {
			writers = append(writers, w)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))

	audit.SaveResponses = cfg.Development.SaveResponses
	audit.ResponseDirectory = cfg.Development.ResponseSaveLocation

	if audit.SaveResponses {
		if err := os.MkdirAll(audit.ResponseDirectory, responseDirPermissions); err != nil {
			log.Error().
				Err(err).
				Str("path", audit.ResponseDirectory).
				Msg("Failed to create response directory, not saving responses")

			audit.SaveResponses = false
		}
	}
}

// logWriter opens one Log.Outputs entry. It returns nil when the output
// cannot be opened.
func (cfg *ServerConfig) logWriter(output string) io.Writer {
	switch output {
	case "/dev/stdout":
		return cfg.formatWriter(os.Stdout)
	case "/dev/stderr":
		return cfg.formatWriter(os.Stderr)
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

		return nil
	}

	return cfg.formatWriter(file)
}

func (cfg *ServerConfig) formatWriter(f *os.File) io.Writer {
	if cfg.Log.Format == "json" {
		return f
	}

	return ConsoleWriter(f)
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}

// ConsoleWriter returns a writer for zerolog that has NoColor:isTerminal(f).
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isTerminal(f)

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// one line per request or translator call
			if sys, ok := m["sys"]; ok && sys == "http" {
				m["message"] = fmt.Sprintf("[%s] %v %-5s %s", m["destination"], m["status_code"], m["method"], m["url"])
				for _, field := range []string{"sys", "method", "status_code", "url", "destination", "request_id"} {
					delete(m, field)
				}
			}

			return nil
		}
	}

	return w
}
