// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package scanner discovers translation keys referenced from source code.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

const defaultConcurrency = 8

var (
	// DefaultMethods are the translation functions looked for when none are configured.
	DefaultMethods = []string{"trans", "__"}

	// DefaultExcludes are the directory globs skipped when none are configured.
	DefaultExcludes = []string{"**/node_modules/**", "**/.git/**"}

	// shortKeyPattern matches "group.key" style keys. Anything else is a string key.
	shortKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9:_-]+(\.[^)\s]+)+$`)

	errNoMethods = errors.New("at least one translation method is required")
)

// Options configures a Scanner.
type Options struct {
	// Paths are the directories (or single files) to scan.
	Paths []string
	// Methods are the function names whose first string argument is a key.
	Methods []string
	// Excludes are globs matched against slash separated paths.
	Excludes []string
	// Concurrency bounds the number of files read at once.
	Concurrency int
}

// Scanner finds calls to translation functions in source files.
type Scanner struct {
	fs          afero.Fs
	paths       []string
	excludes    []glob.Glob
	pattern     *regexp.Regexp
	concurrency int
}

// New builds a Scanner reading from fs.
//
// Empty Methods and Excludes fall back to DefaultMethods and DefaultExcludes.
func New(fs afero.Fs, opts Options) (*Scanner, error) {
	methods := opts.Methods
	if len(methods) == 0 {
		methods = DefaultMethods
	}

	quoted := make([]string, 0, len(methods))

	for _, method := range methods {
		method = strings.TrimSpace(method)
		if method == "" {
			continue
		}

		quoted = append(quoted, regexp.QuoteMeta(method))
	}

	if len(quoted) == 0 {
		return nil, errNoMethods
	}

	// Group 1 is the boundary character, group 3 the key.
	pattern, err := regexp.Compile(`(?i)(^|[^\w])(` + strings.Join(quoted, "|") + `)\(['"](.+?)['"][),]`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile translation method pattern: %w", err)
	}

	excludes := opts.Excludes
	if excludes == nil {
		excludes = DefaultExcludes
	}

	compiled := make([]glob.Glob, 0, len(excludes))

	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		compiled = append(compiled, g)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Scanner{
		fs:          fs,
		paths:       opts.Paths,
		excludes:    compiled,
		pattern:     pattern,
		concurrency: concurrency,
	}, nil
}

// FindTranslations scans every configured path and returns the keys found,
// all with empty values.
//
// Unreadable files and files without matches are skipped.
func (s *Scanner) FindTranslations(ctx context.Context) (catalog.CombinedTranslations, error) {
	files, err := s.files(ctx)
	if err != nil {
		return catalog.CombinedTranslations{}, err
	}

	found := make([][]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			found[i] = s.scanFile(path)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return catalog.CombinedTranslations{}, fmt.Errorf("scan interrupted: %w", err)
	}

	out := catalog.NewCombined()

	for _, keys := range found {
		for _, key := range keys {
			addKey(&out, key)
		}
	}

	log.Debug().
		Str("sys", "scanner").
		Int("files", len(files)).
		Int("keys", out.Len()).
		Msg("Scanned source files")

	return out, nil
}

// Keys returns the translation keys referenced in content, in order of
// appearance.
func (s *Scanner) Keys(content string) []string {
	var keys []string

	for start := 0; start < len(content); {
		loc := s.pattern.FindStringSubmatchIndex(content[start:])
		if loc == nil {
			break
		}

		boundary, keyStart, keyEnd := start+loc[2], start+loc[6], start+loc[7]

		// Continue right after the key so that a closing "," or ")" can
		// serve as the boundary of the next call.
		start = keyEnd

		if loc[3] > loc[2] && content[boundary] == '>' && boundary > 0 && content[boundary-1] == '-' {
			continue
		}

		keys = append(keys, content[keyStart:keyEnd])
	}

	return keys
}

// addKey records key as a short key when it looks like "group.key", and as a
// string key otherwise.
func addKey(out *catalog.CombinedTranslations, key string) {
	if shortKeyPattern.MatchString(key) {
		group, rest, _ := strings.Cut(key, catalog.KeySeparator)
		out.SetShortKey(group, rest, "")

		return
	}

	out.SetStringKey(catalog.StringNamespace, key, "")
}

func (s *Scanner) scanFile(path string) []string {
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		log.Debug().
			Str("sys", "scanner").
			Err(err).
			Str("path", path).
			Msg("Skipping unreadable file")

		return nil
	}

	return s.Keys(string(content))
}

// files lists every regular file below the scan paths, sorted and without
// duplicates.
func (s *Scanner) files(ctx context.Context) ([]string, error) {
	var files []string

	for _, root := range s.paths {
		exists, err := afero.Exists(s.fs, root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat scan path %s: %w", root, err)
		}

		if !exists {
			log.Warn().
				Str("sys", "scanner").
				Str("path", root).
				Msg("Scan path does not exist, skipping")

			continue
		}

		err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				log.Debug().Str("sys", "scanner").Err(err).Str("path", path).Msg("Skipping unwalkable path")

				return nil
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			slashed := filepath.ToSlash(path)

			if info.IsDir() {
				if path != root && s.excluded(slashed+"/") {
					return filepath.SkipDir
				}

				return nil
			}

			if !info.Mode().IsRegular() || s.excluded(slashed) {
				return nil
			}

			files = append(files, path)

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

func (s *Scanner) excluded(path string) bool {
	for _, g := range s.excludes {
		if g.Match(path) {
			return true
		}
	}

	return false
}
