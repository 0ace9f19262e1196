// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

// LangParam is the name of the URL query parameter used by HTTP helpers to read
// a preferred language as a BCP 47 tag.
const LangParam = "lang"

// WithTag stores t in ctx and returns a derived context that carries it.
//
// Passing the zero value of [language.Tag] clears any existing value.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the base language of the
// default catalog if none is present. It never returns the zero value of
// [language.Tag].
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	if c := Default(); c != nil {
		return c.base
	}

	return baseTag
}

// FromRequest returns the best language tag for r by inspecting, in order,
// the [LangParam] query parameter and the Accept-Language header.
//
// A [LangParam] of "auto" (case-insensitive) is ignored. Without a default
// catalog, FromRequest returns the tag for [BaseLocale].
func FromRequest(r *http.Request) language.Tag {
	c := Default()
	if r == nil || c == nil {
		return baseTag
	}

	preferred := make([]string, 0, 2)

	if q := r.URL.Query().Get(LangParam); q != "" && !strings.EqualFold(q, "auto") {
		preferred = append(preferred, q)
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	return c.Match(preferred...)
}

// WithRequest resolves the language from r using [FromRequest] and installs the
// matched tag in the returned context.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return WithTag(ctx, FromRequest(r))
}
