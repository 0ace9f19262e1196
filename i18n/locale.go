// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"maps"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

// BaseLocale is the locale used when no catalog is installed.
const BaseLocale = "en"

var baseTag = language.Make(BaseLocale)

// Base returns the fallback language of c.
func (c *Catalog) Base() language.Tag {
	return c.base
}

// Languages returns the base language followed by the loaded languages in
// sorted order. The returned slice is a copy.
func (c *Catalog) Languages() []language.Tag {
	out := make([]language.Tag, len(c.tags))
	copy(out, c.tags)

	return out
}

// Match returns the best loaded language for the given preferences, each
// either a tag or an Accept-Language value.
func (c *Catalog) Match(preferred ...string) language.Tag {
	var tags []language.Tag

	for _, p := range preferred {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}

		tags = append(tags, parsed...)
	}

	if len(tags) == 0 {
		return c.base
	}

	_, i, _ := c.matcher.Match(tags...)

	return c.tags[i]
}

// Group returns the flat translations of group in namespace for locale.
//
// A group of "*" returns the string keys of namespace. A namespace of "" or
// "*" addresses the application. Unknown locales and groups return nil.
func (c *Catalog) Group(locale, group, namespace string) map[string]string {
	t, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return nil
	}

	translations, ok := c.translations[t.String()]
	if !ok {
		return nil
	}

	if namespace == "*" {
		namespace = ""
	}

	if group == "*" {
		return maps.Clone(translations.StringKeys[catalog.JoinNamespace(namespace, catalog.StringNamespace)])
	}

	tree, ok := translations.ShortKeys[catalog.JoinNamespace(namespace, group)]
	if !ok {
		return nil
	}

	return tree.Flatten()
}

// resolveLocale matches t to one of the loaded languages. The locale is nil
// when nothing is stored for the matched language.
func (c *Catalog) resolveLocale(t language.Tag) (*gotext.Locale, language.Tag) {
	_, i, _ := c.matcher.Match(t)
	matched := c.tags[i]

	return c.locales[matched.String()], matched
}
