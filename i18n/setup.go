// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

// MessagesDomain is the gettext domain of application translations.
const MessagesDomain = "messages"

// loadConcurrency bounds the number of languages read at once.
const loadConcurrency = 4

// Catalog holds the translations of every stored language.
//
// A Catalog is immutable once loaded and safe for concurrent use.
type Catalog struct {
	// Strict enables logging and marking of missing translations.
	Strict bool

	base    language.Tag
	logger  zerolog.Logger
	matcher language.Matcher
	tags    []language.Tag

	// locales maps canonical tags, for example "en" or "pt-BR", to their locale.
	locales map[string]*gotext.Locale
	// codes maps canonical tags to the stored language codes.
	codes map[string]string
	// translations keeps the stored form for Group.
	translations map[string]catalog.CombinedTranslations

	// missingKeyOnce deduplicates WARN logs for missing keys in strict mode.
	// The key is locale+"\x00"+key.
	missingKeyOnce sync.Map
}

var defaultCatalog atomic.Pointer[Catalog]

// SetDefault installs c as the catalog used by the package level functions.
func SetDefault(c *Catalog) {
	defaultCatalog.Store(c)
}

// Default returns the installed catalog, or nil.
func Default() *Catalog {
	return defaultCatalog.Load()
}

// Load reads every language from d and builds a Catalog. base is the fallback
// language and is always part of the matcher, even when nothing is stored
// for it.
func Load(ctx context.Context, d storage.Driver, base string) (*Catalog, error) {
	baseTag, err := language.Parse(strings.ReplaceAll(base, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("invalid base language %q: %w", base, err)
	}

	languages, err := d.AllLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	c := &Catalog{
		base:         baseTag,
		logger:       log.With().Str("sys", "i18n").Logger(),
		locales:      make(map[string]*gotext.Locale),
		codes:        make(map[string]string),
		translations: make(map[string]catalog.CombinedTranslations),
	}

	var (
		mu   sync.Mutex
		tags []language.Tag
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for _, code := range languages.Codes() {
		t, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
		if err != nil {
			c.logger.Warn().Err(err).Str("language", code).Msg("Skipping invalid language code")

			continue
		}

		g.Go(func() error {
			translations, err := storage.AllTranslationsFor(gctx, d, code)
			if err != nil {
				return err
			}

			loc := newLocale(t.String(), translations)

			mu.Lock()
			defer mu.Unlock()

			c.locales[t.String()] = loc
			c.codes[t.String()] = code
			c.translations[t.String()] = translations
			tags = append(tags, t)

			c.logger.Info().
				Str("locale", t.String()).
				Int("count", translations.Len()).
				Msg("Loaded locale")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// baseTag is first to make it the default fallback for matching.
	slices.SortFunc(tags, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	all := make([]language.Tag, 0, len(tags)+1)
	all = append(all, baseTag)

	for _, t := range tags {
		if t != baseTag {
			all = append(all, t)
		}
	}

	c.matcher = language.NewMatcher(all)
	c.tags = all

	return c, nil
}

// newLocale builds a gotext locale holding one domain per namespace.
func newLocale(name string, translations catalog.CombinedTranslations) *gotext.Locale {
	domains := make(map[string]*gotext.Po)

	domain := func(vendor string) *gotext.Po {
		if vendor == "" {
			vendor = MessagesDomain
		}

		po, ok := domains[vendor]
		if !ok {
			po = gotext.NewPo()
			domains[vendor] = po
		}

		return po
	}

	for group, tree := range translations.ShortKeys {
		vendor, name := catalog.SplitNamespace(group)
		po := domain(vendor)

		for key, value := range tree.Flatten() {
			po.Set(name+catalog.KeySeparator+key, value)
		}
	}

	for namespace, keys := range translations.StringKeys {
		vendor, _ := catalog.SplitNamespace(namespace)
		po := domain(vendor)

		for key, value := range keys {
			po.Set(key, value)
		}
	}

	loc := gotext.NewLocale("", name) // Base path is unused when manually adding translators.
	for name, po := range domains {
		loc.AddTranslator(name, po)
	}

	return loc
}
