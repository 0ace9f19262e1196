// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n serves stored translations to an application at runtime.

A Catalog is built from a storage driver with Load. Every stored language
becomes a gettext locale with one domain per namespace:

  - "messages" holds the application short keys as "group.key" and the
    application string keys as themselves.
  - a vendor "acme" gets the domain "acme", laid out the same way.

# Quick start

	cat, err := i18n.Load(ctx, driver, "en")
	i18n.SetDefault(cat)

	i18n.Tr(ctx, "auth.failed")
	i18n.Tr(ctx, "Welcome, {{.Name}}!", "Name", user.Name)
	i18n.TrD(ctx, "acme", "settings.title")

The locale comes from the context (see WithTag and WithRequest) and is matched
against the loaded languages, the base language first.

# Missing translations

Missing translations return the key unchanged. When Strict is set, missing
lookups are logged once per locale and key and the returned text is visibly
wrapped as "⟦...⟧". Empty stored values count as missing.

# Formatting

Translations can include placeholders processed by text/template. Provide
substitutions as alternating key-value pairs.

# Loader contract

Catalog.Group returns the flat translations of one group, or of the string
keys when the group is "*", for frameworks that load translations lazily.
*/
package i18n
