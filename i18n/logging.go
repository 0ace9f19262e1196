// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

func logger(c *Catalog) *zerolog.Logger {
	if c == nil {
		return &log.Logger
	}

	return &c.logger
}

// logMissingOnce logs a missing translation warning once per (locale, domain,
// key).
func (c *Catalog) logMissingOnce(locale, domain, key string) {
	id := locale + "\x00" + domain + "\x00" + key
	if _, loaded := c.missingKeyOnce.LoadOrStore(id, struct{}{}); !loaded {
		c.logger.Warn().
			Str("locale", locale).
			Str("domain", domain).
			Str("key", key).
			Msg("Missing i18n translation")
	}
}

// strippedTagString removes variants to form a stable key using base, script and region only.
func strippedTagString(tag language.Tag) string {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped.String()
}
