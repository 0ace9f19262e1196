// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// templateCache caches compiled templates per unique template text.
var templateCache sync.Map // key: text, value: *template.Template

type Vars map[string]any

// Tr translates key with the default catalog. Without one, the key is
// rendered unchanged.
func Tr(ctx context.Context, key string, kv ...any) string {
	return TrD(ctx, MessagesDomain, key, kv...)
}

// TrD is Tr for a vendor domain.
func TrD(ctx context.Context, domain, key string, kv ...any) string {
	if c := Default(); c != nil {
		return c.TrD(ctx, domain, key, kv...)
	}

	return render(nil, baseTag, key, v(kv...))
}

// Tr returns the application translation of key, a "group.key" short key or
// a string key, for the language in ctx. If key-value pairs are provided,
// the translation is formatted using text/template-style named placeholders.
//
// If a translation is not found, Tr returns the key unchanged, or visibly
// wrapped if Strict is set.
func (c *Catalog) Tr(ctx context.Context, key string, kv ...any) string {
	return c.TrD(ctx, MessagesDomain, key, kv...)
}

// TrD is Tr for the translations of domain, a vendor name or MessagesDomain.
func (c *Catalog) TrD(ctx context.Context, domain, key string, kv ...any) string {
	loc, matched := c.resolveLocale(TagFrom(ctx))

	text := key
	found := false

	if loc != nil && loc.IsTranslatedD(domain, key) {
		text = loc.GetD(domain, key)
		found = true
	}

	if !found && c.Strict {
		c.logMissingOnce(strippedTagString(matched), domain, key)

		text = "⟦" + key + "⟧"
	}

	return render(c, matched, text, v(kv...))
}

// render formats s as a text/template using the provided data.
func render(c *Catalog, locale language.Tag, s string, data Vars) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	strict := c != nil && c.Strict

	var tmpl *template.Template
	if t, ok := templateCache.Load(s); ok {
		tmpl = t.(*template.Template)
	} else {
		var err error

		tmpl, err = template.New("msg").Option("missingkey=error").Parse(s)
		if err != nil {
			if strict {
				return "⟦" + s + "⟧"
			}

			logger(c).Warn().Err(err).Str("locale", locale.String()).Str("text", s).Msg("Template parse error")

			return s
		}

		templateCache.Store(s, tmpl)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		if strict {
			return "⟦" + s + "⟧"
		}

		logger(c).Warn().Err(err).Str("locale", locale.String()).Str("text", s).Msg("Template execute error")

		return s
	}

	return buf.String()
}

// v builds Vars from alternating key, value pairs.
// Panics on programmer error.
func v(kv ...any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of arguments, want key, value pairs")
	}

	m := make(Vars, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("i18n: key must be string")
		}

		m[k] = kv[i+1]
	}

	return m
}
