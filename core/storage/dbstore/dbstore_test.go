// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package dbstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

func openDriver(t *testing.T, opts Options) *Driver {
	t.Helper()

	opts.Driver = "sqlite3"
	if opts.DSN == "" {
		opts.DSN = filepath.Join(t.TempDir(), "translations.db")
	}

	d, err := Open(context.Background(), opts)
	require.NoError(t, err)

	t.Cleanup(func() { d.Close() })

	return d
}

func TestAddLanguage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := openDriver(t, Options{})

	exists, err := d.LanguageExists(ctx, "fr")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, d.AddLanguage(ctx, "fr", "Français"))
	require.NoError(t, d.AddLanguage(ctx, "de", ""))

	exists, err = d.LanguageExists(ctx, "fr")
	require.NoError(t, err)
	assert.True(t, exists)

	err = d.AddLanguage(ctx, "fr", "French")

	var existsErr *storage.LanguageExistsError
	require.ErrorAs(t, err, &existsErr)
	assert.Equal(t, "fr", existsErr.Language)

	languages, err := d.AllLanguages(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Languages{"fr": "Français", "de": "de"}, languages)

	require.ErrorIs(t, d.AddLanguage(ctx, "../x", ""), storage.ErrInvalidLanguage)
}

func TestShortKeyTranslations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := openDriver(t, Options{})

	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "products", "title", "Products"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "products", "product_one.title", "One"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "products", "product_one.price", "Price"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "acme::settings", "title", "Settings"))

	// Writing an existing key replaces its value.
	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "products", "title", "All products"))

	groups, err := d.AllShortKeyTranslationsFor(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"title":             "All products",
		"product_one.title": "One",
		"product_one.price": "Price",
	}, groups["products"].Flatten())
	assert.Equal(t, "One", groups["products"]["product_one.title"].Value)
	assert.NotContains(t, groups["products"], "product_one")
	assert.Equal(t, "Settings", groups["acme::settings"]["title"].Value)

	names, err := d.AllShortKeyGroupsFor(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme::settings", "products"}, names)

	// The language row was created on demand.
	exists, err := d.LanguageExists(ctx, "en")
	require.NoError(t, err)
	assert.True(t, exists)

	strs, err := d.AllStringKeyTranslationsFor(ctx, "en")
	require.NoError(t, err)
	assert.Empty(t, strs)

	require.ErrorIs(t, d.AddShortKeyTranslation(ctx, "en", "string", "k", "v"), errInvalidGroup)
	require.ErrorIs(t, d.AddShortKeyTranslation(ctx, "en", "", "k", "v"), errInvalidGroup)
}

func TestStringKeyTranslations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := openDriver(t, Options{})

	require.NoError(t, d.AddStringKeyTranslation(ctx, "es", "", "Hello", "Hola"))
	require.NoError(t, d.AddStringKeyTranslation(ctx, "es", "string", "Bye.", ""))
	require.NoError(t, d.AddStringKeyTranslation(ctx, "es", "acme::string", "Save", "Guardar"))

	strs, err := d.AllStringKeyTranslationsFor(ctx, "es")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"string":       {"Hello": "Hola", "Bye.": ""},
		"acme::string": {"Save": "Guardar"},
	}, strs)

	groups, err := d.AllShortKeyGroupsFor(ctx, "es")
	require.NoError(t, err)
	assert.Empty(t, groups)

	require.ErrorIs(t, d.AddStringKeyTranslation(ctx, "es", "products", "k", "v"), errInvalidGroup)
}

// TestLegacyGroups opens a database written by an older release, where string
// keys were stored with a NULL or "single" group.
func TestLegacyGroups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)

	_, err = db.Exec(`
CREATE TABLE languages ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT NULL, "language" TEXT NOT NULL UNIQUE,
    "created_at" TIMESTAMP NULL, "updated_at" TIMESTAMP NULL);
CREATE TABLE translations ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "language_id" INTEGER NOT NULL, "group" TEXT NULL,
    "key" TEXT NOT NULL, "value" TEXT NULL, "created_at" TIMESTAMP NULL, "updated_at" TIMESTAMP NULL);
INSERT INTO languages ("language") VALUES ('en');
INSERT INTO translations ("language_id", "group", "key", "value") VALUES
    (1, NULL, 'Hello', 'Hello'),
    (1, 'single', 'Bye', NULL),
    (1, 'acme::single', 'Save', 'Save'),
    (1, 'auth', 'failed', 'Failed');
`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	d := openDriver(t, Options{DSN: dsn})

	version, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	strs, err := d.AllStringKeyTranslationsFor(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"string":       {"Hello": "Hello", "Bye": ""},
		"acme::string": {"Save": "Save"},
	}, strs)

	groups, err := d.AllShortKeyGroupsFor(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, groups)

	// Upserting hits the migrated row instead of adding a second one.
	require.NoError(t, d.AddStringKeyTranslation(ctx, "en", "string", "Bye", "Goodbye"))

	var count int
	require.NoError(t, d.db.Get(&count, `SELECT COUNT(*) FROM translations WHERE "key" = 'Bye'`))
	assert.Equal(t, 1, count)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "translations.db")

	first := openDriver(t, Options{DSN: dsn})
	require.NoError(t, first.AddStringKeyTranslation(ctx, "en", "", "Hello", "Hello"))
	require.NoError(t, first.Close())

	second := openDriver(t, Options{DSN: dsn})

	version, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	strs, err := second.AllStringKeyTranslationsFor(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", strs["string"]["Hello"])
}

func TestCustomTables(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := openDriver(t, Options{LanguagesTable: "tm_languages", TranslationsTable: "tm_translations"})

	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "auth", "failed", "Failed"))

	var count int
	require.NoError(t, d.db.Get(&count, `SELECT COUNT(*) FROM tm_translations`))
	assert.Equal(t, 1, count)
}

func TestOpen_InvalidOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Open(ctx, Options{Driver: "oracle", DSN: "x"})
	require.ErrorIs(t, err, errUnsupportedDatabase)

	_, err = Open(ctx, Options{
		Driver:         "sqlite3",
		DSN:            filepath.Join(t.TempDir(), "x.db"),
		LanguagesTable: "languages; DROP TABLE x",
	})
	require.ErrorIs(t, err, errInvalidTable)
}
