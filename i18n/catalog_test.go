// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/pixivfe/transmgr/core/storage/filestore"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()

	ctx := context.Background()
	d := filestore.New(afero.NewMemMapFs(), "/lang")

	require.NoError(t, d.AddShortKeyTranslation(ctx, "en", "auth", "failed", "Login failed"))
	require.NoError(t, d.AddStringKeyTranslation(ctx, "en", "string", "Hello", "Hello"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "es", "auth", "failed", "Fallo de acceso"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "es", "auth", "welcome", "Hola, {{.Name}}"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "es", "auth", "empty", ""))
	require.NoError(t, d.AddStringKeyTranslation(ctx, "es", "string", "Hello", "Hola"))
	require.NoError(t, d.AddShortKeyTranslation(ctx, "es", "acme::settings", "title", "Ajustes"))
	require.NoError(t, d.AddStringKeyTranslation(ctx, "es", "acme::string", "Save", "Guardar"))

	c, err := Load(ctx, d, "en")
	require.NoError(t, err)

	return c
}

func TestCatalogTr(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	es := WithTag(context.Background(), language.Spanish)

	tests := []struct {
		name   string
		ctx    context.Context
		domain string
		key    string
		kv     []any
		want   string
	}{
		{"short key", es, MessagesDomain, "auth.failed", nil, "Fallo de acceso"},
		{"string key", es, MessagesDomain, "Hello", nil, "Hola"},
		{"placeholders", es, MessagesDomain, "auth.welcome", []any{"Name", "Ana"}, "Hola, Ana"},
		{"empty value falls back", es, MessagesDomain, "auth.empty", nil, "auth.empty"},
		{"missing key", es, MessagesDomain, "auth.unknown", nil, "auth.unknown"},
		{"vendor short key", es, "acme", "settings.title", nil, "Ajustes"},
		{"vendor string key", es, "acme", "Save", nil, "Guardar"},
		{"vendor keys stay in their domain", es, MessagesDomain, "settings.title", nil, "settings.title"},
		{"base language", context.Background(), MessagesDomain, "auth.failed", nil, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, c.TrD(tt.ctx, tt.domain, tt.key, tt.kv...))
		})
	}
}

func TestCatalogStrict(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	c.Strict = true

	ctx := WithTag(context.Background(), language.Spanish)

	assert.Equal(t, "⟦auth.unknown⟧", c.Tr(ctx, "auth.unknown"))
	assert.Equal(t, "Fallo de acceso", c.Tr(ctx, "auth.failed"))
}

func TestCatalogLanguages(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)

	assert.Equal(t, []language.Tag{language.English, language.Spanish}, c.Languages())
	assert.Equal(t, language.Spanish, c.Match("es-MX,es;q=0.9"))
	assert.Equal(t, language.English, c.Match("ja"))
	assert.Equal(t, language.English, c.Match())
}

func TestCatalogGroup(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)

	assert.Equal(t, map[string]string{
		"failed":  "Fallo de acceso",
		"welcome": "Hola, {{.Name}}",
		"empty":   "",
	}, c.Group("es", "auth", ""))
	assert.Equal(t, map[string]string{"Hello": "Hola"}, c.Group("es", "*", "*"))
	assert.Equal(t, map[string]string{"title": "Ajustes"}, c.Group("es", "settings", "acme"))
	assert.Equal(t, map[string]string{"Save": "Guardar"}, c.Group("es", "*", "acme"))
	assert.Nil(t, c.Group("es", "missing", ""))
	assert.Nil(t, c.Group("fr", "auth", ""))
}

// TestDefaultCatalog touches package state and must not run in parallel.
func TestDefaultCatalog(t *testing.T) {
	SetDefault(nil)
	t.Cleanup(func() { SetDefault(nil) })

	ctx := context.Background()
	assert.Equal(t, "auth.failed", Tr(ctx, "auth.failed"))
	assert.Equal(t, "Hi Bo", Tr(ctx, "Hi {{.N}}", "N", "Bo"))
	assert.Equal(t, baseTag, TagFrom(ctx))

	SetDefault(loadCatalog(t))

	req := httptest.NewRequest("GET", "/?lang=es", nil)
	assert.Equal(t, language.Spanish, FromRequest(req))

	req = httptest.NewRequest("GET", "/?lang=auto", nil)
	req.Header.Set("Accept-Language", "es-ES")
	assert.Equal(t, language.Spanish, FromRequest(req))

	ctx = WithRequest(ctx, req)
	assert.Equal(t, "Fallo de acceso", Tr(ctx, "auth.failed"))
	assert.Equal(t, "Fallo de acceso", MsgKey("auth.failed").Tr(ctx))
	assert.Equal(t, "Ajustes", TrD(ctx, "acme", "settings.title"))

	err := NewUserError(ctx, nil, "Hello")
	assert.Equal(t, "Hola", err.Error())
}
