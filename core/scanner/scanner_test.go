// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package scanner

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newScanner(t *testing.T, files map[string]string, opts Options) *Scanner {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	s, err := New(fs, opts)
	require.NoError(t, err)

	return s
}

func TestKeys(t *testing.T) {
	t.Parallel()

	s, err := New(afero.NewMemMapFs(), Options{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single quotes",
			content: `<?php echo trans('test.hello'); ?>`,
			want:    []string{"test.hello"},
		},
		{
			name:    "double quotes with parameters",
			content: `{{ __("Welcome, :name", ['name' => $user]) }}`,
			want:    []string{"Welcome, :name"},
		},
		{
			name:    "method call on an object is ignored",
			content: `$translator->trans('not.this'); trans('but.this')`,
			want:    []string{"but.this"},
		},
		{
			name:    "adjacent calls",
			content: `[__('One'),__('Two')]`,
			want:    []string{"One", "Two"},
		},
		{
			name:    "call at the start of the file",
			content: `trans('first.key')`,
			want:    []string{"first.key"},
		},
		{
			name:    "identifier suffix is not a call",
			content: `mytrans('nope') translate('nope')`,
			want:    nil,
		},
		{
			name:    "multi-line calls are not detected",
			content: "trans(\n'nope.nope')",
			want:    nil,
		},
		{
			name:    "apostrophe inside double quotes",
			content: `__("What's up!")`,
			want:    []string{"What's up!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, s.Keys(tt.content))
		})
	}
}

// TestFindTranslations checks classification into short and string keys.
func TestFindTranslations(t *testing.T) {
	t.Parallel()

	s := newScanner(t, map[string]string{
		"app/Http/Controller.php":       `trans('test.hello'); __('Greeting'); trans('test.hello');`,
		"resources/views/home.blade.php": `@lang('ignored') {{ __('products.product_one.title') }} {{ trans('acme::settings.title') }}`,
		"resources/views/plain.txt":      "nothing to see here",
		"resources/node_modules/x.js":    `__('excluded')`,
	}, Options{Paths: []string{"app", "resources"}})

	got, err := s.FindTranslations(context.Background())
	require.NoError(t, err)

	want := catalog.NewCombined()
	want.SetShortKey("test", "hello", "")
	want.SetShortKey("products", "product_one.title", "")
	want.SetShortKey("acme::settings", "title", "")
	want.SetStringKey(catalog.StringNamespace, "Greeting", "")

	assert.Equal(t, want, got)
}

func TestFindTranslations_CustomMethods(t *testing.T) {
	t.Parallel()

	s := newScanner(t, map[string]string{
		"src/a.php": `Lang::get('auth.failed'); trans('test.hello'); @lang('Sign in')`,
	}, Options{Paths: []string{"src"}, Methods: []string{"Lang::get", "@lang"}})

	got, err := s.FindTranslations(context.Background())
	require.NoError(t, err)

	want := catalog.NewCombined()
	want.SetShortKey("auth", "failed", "")
	want.SetStringKey(catalog.StringNamespace, "Sign in", "")

	assert.Equal(t, want, got)
}

func TestFindTranslations_MissingPath(t *testing.T) {
	t.Parallel()

	s := newScanner(t, map[string]string{"app/a.php": `__('Hi')`}, Options{Paths: []string{"app", "does-not-exist"}})

	got, err := s.FindTranslations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Hi": ""}, got.StringKeys[catalog.StringNamespace])
}

func TestFindTranslations_Cancelled(t *testing.T) {
	t.Parallel()

	s := newScanner(t, map[string]string{"app/a.php": `__('Hi')`}, Options{Paths: []string{"app"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindTranslations(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := New(afero.NewMemMapFs(), Options{Methods: []string{" "}})
	require.Error(t, err)

	_, err = New(afero.NewMemMapFs(), Options{Excludes: []string{"[unclosed"}})
	require.Error(t, err)
}
