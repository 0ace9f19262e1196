// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/scanner"
	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/storage/dbstore"
	"codeberg.org/pixivfe/transmgr/core/storage/filestore"
)

const appSource = `<?php
echo trans('test.hello');
echo __('Greeting');
`

// backend opens an empty storage driver for a test.
type backend struct {
	name string
	open func(t *testing.T) storage.Driver
	// flat is set when dotted short keys read back as literal keys.
	flat bool
}

var backends = []backend{
	{
		name: "file",
		open: func(*testing.T) storage.Driver {
			return filestore.New(afero.NewMemMapFs(), "/lang")
		},
	},
	{
		name: "database",
		flat: true,
		open: func(t *testing.T) storage.Driver {
			t.Helper()

			d, err := dbstore.Open(context.Background(), dbstore.Options{
				Driver: "sqlite3",
				DSN:    filepath.Join(t.TempDir(), "translations.db"),
			})
			require.NoError(t, err)

			t.Cleanup(func() { d.Close() })

			return d
		},
	},
}

// newManager returns a Manager over a fresh driver of b whose scanner reads
// files from memory.
func newManager(t *testing.T, b backend, files map[string]string, opts Options) *Manager {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	s, err := scanner.New(fs, scanner.Options{Paths: []string{"/app"}})
	require.NoError(t, err)

	opts.Scanner = s

	return New(b.open(t), opts)
}

func TestScanAndSeed(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{"/app/home.php": appSource}, Options{})

			require.NoError(t, m.AddLanguage(ctx, "es", ""))

			missing, err := m.FindMissingTranslations(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"hello": ""}, missing.ShortKeys["test"].Flatten())
			assert.Equal(t, map[string]map[string]string{"string": {"Greeting": ""}}, missing.StringKeys)

			require.NoError(t, m.SaveMissingTranslations(ctx, "es"))

			stored, err := m.AllTranslationsFor(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"hello": ""}, stored.ShortKeys["test"].Flatten())
			assert.Equal(t, map[string]string{"Greeting": ""}, stored.StringKeys["string"])

			missing, err = m.FindMissingTranslations(ctx, "es")
			require.NoError(t, err)
			assert.True(t, missing.IsEmpty())
		})
	}
}

// TestFindMissing_PresenceNotTruthiness checks that an empty stored value
// counts as present.
func TestFindMissing_PresenceNotTruthiness(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{"/app/home.php": `trans('home.title') trans('home.body')`}, Options{})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "home", "title", ""))

			missing, err := m.FindMissingTranslations(ctx, "en")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"body": ""}, missing.ShortKeys["home"].Flatten())
		})
	}
}

func TestFindMissing_ShapeMismatch(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{
				"/app/a.php": `trans('menu.file.open') trans('menu.edit')`,
			}, Options{})

			// "file" is stored as a leaf where the scan expects a subtree.
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "menu", "file", "File"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "menu", "edit.undo", "Undo"))

			missing, err := m.FindMissingTranslations(ctx, "en")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"file.open": ""}, missing.ShortKeys["menu"].Flatten())

			require.NoError(t, m.SaveMissingTranslations(ctx, "en"))

			stored, err := m.AllShortKeyTranslationsFor(ctx, "en")
			require.NoError(t, err)
			assert.Equal(t, "File", stored["menu"]["file"].Value, "existing leaf is kept")
			assert.True(t, stored["menu"].Has("file.open"))

			missing, err = m.FindMissingTranslations(ctx, "en")
			require.NoError(t, err)
			assert.True(t, missing.IsEmpty())
		})
	}
}

func TestFindMissing_NoScanner(t *testing.T) {
	t.Parallel()

	m := New(filestore.New(afero.NewMemMapFs(), "/lang"), Options{})

	_, err := m.FindMissingTranslations(context.Background(), "en")
	require.ErrorIs(t, err, errNoScanner)
}

func TestSaveMissing_NeverOverwrites(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{"/app/home.php": appSource}, Options{})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "de", "test", "hello", "Hallo"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "fr", "string", "Greeting", "Salut"))

			// Every language is processed when none is given.
			require.NoError(t, m.SaveMissingTranslations(ctx, ""))

			de, err := m.AllTranslationsFor(ctx, "de")
			require.NoError(t, err)
			assert.Equal(t, "Hallo", de.ShortKeys["test"]["hello"].Value)
			assert.Equal(t, map[string]string{"Greeting": ""}, de.StringKeys["string"])

			fr, err := m.AllTranslationsFor(ctx, "fr")
			require.NoError(t, err)
			assert.Equal(t, "Salut", fr.StringKeys["string"]["Greeting"])
			assert.Equal(t, "", fr.ShortKeys["test"]["hello"].Value)
		})
	}
}

func TestSaveMissingFrom(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{"/app/home.php": appSource}, Options{})

			missing, err := m.FindMissingTranslations(ctx, "es")
			require.NoError(t, err)

			saved, err := m.SaveMissingFrom(ctx, "es", missing)
			require.NoError(t, err)
			assert.Equal(t, 2, saved)

			saved, err = m.SaveMissingFrom(ctx, "es", catalog.NewCombined())
			require.NoError(t, err)
			assert.Zero(t, saved)

			missing, err = m.FindMissingTranslations(ctx, "es")
			require.NoError(t, err)
			assert.True(t, missing.IsEmpty())
		})
	}
}

func TestSaveMissing_CopyKeyToValue(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, map[string]string{"/app/home.php": appSource}, Options{CopyKeyToValue: true})

			require.NoError(t, m.SaveMissingTranslations(ctx, "en"))
			require.NoError(t, m.SaveMissingTranslations(ctx, "es"))

			en, err := m.AllTranslationsFor(ctx, "en")
			require.NoError(t, err)
			assert.Equal(t, "Greeting", en.StringKeys["string"]["Greeting"])
			assert.Equal(t, "", en.ShortKeys["test"]["hello"].Value)

			es, err := m.AllTranslationsFor(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, "", es.StringKeys["string"]["Greeting"], "only the source language copies keys")
		})
	}
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, source+">"+target+":"+text)

	if f.fail[text] {
		return "", errors.New("quota exceeded")
	}

	return "[" + target + "] " + text, nil
}

func TestSaveMissing_AutoTranslate(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			tr := &fakeTranslator{fail: map[string]bool{"Greeting": true}}

			var progress []int

			m := newManager(t, b, map[string]string{"/app/home.php": appSource}, Options{
				Translator:  tr,
				PrefixNew:   "NEW:",
				PrefixError: "ERR:",
				Progress:    func(_ string, done, _ int) { progress = append(progress, done) },
			})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "test", "hello", "Hello"))
			require.NoError(t, m.SaveMissingTranslations(ctx, "es"))

			es, err := m.AllTranslationsFor(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, "NEW:[es] Hello", es.ShortKeys["test"]["hello"].Value)
			assert.Equal(t, "ERR:quota exceededGreeting", es.StringKeys["string"]["Greeting"])
			assert.Equal(t, []int{1, 2}, progress)

			// The source language is never machine translated.
			tr.calls = nil
			require.NoError(t, m.SaveMissingTranslations(ctx, "en"))
			assert.Empty(t, tr.calls)
		})
	}
}

func TestSourceLanguageTranslationsWith(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, nil, Options{SourceLanguage: "en"})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "test", "hello", "Hello"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "test", "nested.deep", "Deep"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "es", "test", "nested.deep", "Profundo"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "en", "string", "Bye", "Bye"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "es", "string", "Bye", "Adiós"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "es", "string", "Extra", "Solo es"))

			merged, err := m.SourceLanguageTranslationsWith(ctx, "es")
			require.NoError(t, err)

			hello := merged.ShortKeys["test"]["hello"]
			assert.Equal(t, "Hello", hello.Source.Value)
			assert.Equal(t, "", hello.Target.Value)
			assert.True(t, hello.Target.IsLeaf())

			if b.flat {
				assert.Equal(t, catalog.Pair{Source: catalog.Leaf("Deep"), Target: catalog.Leaf("Profundo")},
					merged.ShortKeys["test"]["nested.deep"])
				assert.NotContains(t, merged.ShortKeys["test"], "nested")
			} else {
				nested := merged.ShortKeys["test"]["nested"]
				assert.False(t, nested.Source.IsLeaf())
				assert.Equal(t, "Profundo", nested.Target.Children["deep"].Value)
			}

			assert.Equal(t, catalog.Pair{Source: catalog.Leaf("Bye"), Target: catalog.Leaf("Adiós")}, merged.StringKeys["string"]["Bye"])
			assert.NotContains(t, merged.StringKeys["string"], "Extra")
		})
	}
}

func TestFilterTranslationsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter string
		short  map[string][]string
		str    map[string][]string
		// flatShort replaces short for drivers that keep dotted keys literal.
		flatShort map[string][]string
	}{
		{
			name:   "key match",
			filter: "up",
			short:  map[string][]string{"greetings": {"whats_up"}},
			str:    map[string][]string{},
		},
		{
			name:   "target value match ignoring case",
			filter: "HOLA",
			short:  map[string][]string{"greetings": {"hello"}},
			str:    map[string][]string{},
		},
		{
			name:   "group match",
			filter: "other",
			short:  map[string][]string{"other": {"title"}},
			str:    map[string][]string{},
		},
		{
			name:   "string namespace match",
			filter: "strin",
			short:  map[string][]string{},
			str:    map[string][]string{"string": {"Sign in"}},
		},
		{
			name:      "dotted key match",
			filter:    "attribute",
			short:     map[string][]string{},
			str:       map[string][]string{},
			flatShort: map[string][]string{"validation": {"custom.attribute"}},
		},
		{
			name:      "dotted key target match",
			filter:    "atribUTO",
			short:     map[string][]string{},
			str:       map[string][]string{},
			flatShort: map[string][]string{"validation": {"custom.attribute"}},
		},
		{
			name:   "no match",
			filter: "zzz",
			short:  map[string][]string{},
			str:    map[string][]string{},
		},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, nil, Options{SourceLanguage: "en"})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "greetings", "hello", "Hello"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "greetings", "whats_up", "What's up!"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "validation", "custom.attribute", "Attribute"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "other", "title", "Title"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "en", "string", "Sign in", "Sign in"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "es", "greetings", "hello", "Hola"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "es", "validation", "custom.attribute", "Atributo"))

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					t.Parallel()

					want := tt.short
					if b.flat && tt.flatShort != nil {
						want = tt.flatShort
					}

					got, err := m.FilterTranslationsFor(ctx, "es", tt.filter)
					require.NoError(t, err)

					assert.Equal(t, want, pairKeys(got.ShortKeys))
					assert.Equal(t, tt.str, pairKeys(got.StringKeys))
				})
			}

			all, err := m.FilterTranslationsFor(ctx, "es", "")
			require.NoError(t, err)
			assert.Len(t, all.ShortKeys, 3)

			if b.flat {
				assert.Contains(t, all.ShortKeys["validation"], "custom.attribute")
			} else {
				assert.Contains(t, all.ShortKeys["validation"], "custom")
			}

			only := OnlyGroup(all, "other")
			assert.Equal(t, map[string][]string{"other": {"title"}}, pairKeys(only.ShortKeys))
			assert.Empty(t, only.StringKeys)
		})
	}
}

func pairKeys(groups map[string]map[string]catalog.Pair) map[string][]string {
	out := make(map[string][]string, len(groups))

	for group, pairs := range groups {
		for key := range pairs {
			out[group] = append(out[group], key)
		}
	}

	return out
}

func TestAdd(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, nil, Options{})

			var events []TranslationAdded

			unsubscribe := m.Subscribe(func(_ context.Context, e TranslationAdded) {
				events = append(events, e)
			})

			require.NoError(t, m.Add(ctx, Payload{Group: "settings", Key: "title", Value: "Ajustes"}, "es", true))
			require.NoError(t, m.Add(ctx, Payload{Namespace: "vendorX", Group: "settings", Key: "title", Value: "Título"}, "es", true))
			require.NoError(t, m.Add(ctx, Payload{Key: "Save", Value: "Guardar"}, "es", false))
			require.NoError(t, m.Add(ctx, Payload{Namespace: "vendorX", Key: "Save", Value: "Salvar"}, "es", false))

			assert.Equal(t, []TranslationAdded{
				{Language: "es", Group: "settings", Key: "title", Value: "Ajustes"},
				{Language: "es", Group: "vendorX::settings", Key: "title", Value: "Título"},
				{Language: "es", Group: "string", Key: "Save", Value: "Guardar"},
				{Language: "es", Group: "vendorX::string", Key: "Save", Value: "Salvar"},
			}, events)

			stored, err := m.AllTranslationsFor(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, "Ajustes", stored.ShortKeys["settings"]["title"].Value)
			assert.Equal(t, "Título", stored.ShortKeys["vendorX::settings"]["title"].Value)
			assert.Equal(t, "Guardar", stored.StringKeys["string"]["Save"])
			assert.Equal(t, "Salvar", stored.StringKeys["vendorX::string"]["Save"])

			// Vendor writes stay out of the unscoped group and namespace.
			assert.Equal(t, map[string]string{"Save": "Guardar"}, stored.StringKeys["string"])
			assert.Equal(t, map[string]string{"title": "Ajustes"}, stored.ShortKeys["settings"].Flatten())

			unsubscribe()

			require.NoError(t, m.Add(ctx, Payload{Key: "Open", Value: "Abrir"}, "es", false))
			assert.Len(t, events, 4)

			require.ErrorIs(t, m.Add(ctx, Payload{Group: "settings"}, "es", true), ErrEmptyKey)
			assert.Len(t, events, 4, "failed writes are not announced")
		})
	}
}

func TestAddLanguage_Exists(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, nil, Options{})

			require.NoError(t, m.AddLanguage(ctx, "fr", "French"))
			assert.True(t, storage.IsLanguageExists(m.AddLanguage(ctx, "fr", "French")))
		})
	}
}

func TestNormalizedKeys(t *testing.T) {
	t.Parallel()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m := newManager(t, b, nil, Options{})

			require.NoError(t, m.AddShortKeyTranslation(ctx, "en", "auth", "failed", "Failed"))
			require.NoError(t, m.AddShortKeyTranslation(ctx, "es", "auth", "throttle", "Espera"))
			require.NoError(t, m.AddStringKeyTranslation(ctx, "es", "string", "Hello", "Hola"))

			keys, err := m.NormalizedKeys(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"failed": "", "throttle": ""}, keys.ShortKeys["auth"].Flatten())
			assert.Equal(t, map[string]string{"Hello": ""}, keys.StringKeys["string"])

			all, err := m.AllTranslations(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestSynchronise(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	from := filestore.New(afero.NewMemMapFs(), "/lang")
	require.NoError(t, from.AddShortKeyTranslation(ctx, "en", "auth", "failed", "Failed"))
	require.NoError(t, from.AddShortKeyTranslation(ctx, "en", "auth", "nested.deep", "Deep"))
	require.NoError(t, from.AddStringKeyTranslation(ctx, "en", "string", "Hello", "Hello"))
	require.NoError(t, from.AddStringKeyTranslation(ctx, "es", "acme::string", "Save", "Guardar"))

	to, err := OpenDriver(ctx, DriverOptions{
		Type: storage.DatabaseDriver,
		Database: dbstore.Options{
			Driver: "sqlite3",
			DSN:    filepath.Join(t.TempDir(), "sync.db"),
		},
	})
	require.NoError(t, err)

	t.Cleanup(func() { CloseDriver(to) })

	n, err := Synchronise(ctx, from, to, "en")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	languages, err := to.AllLanguages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, languages.Codes())

	n, err = Synchronise(ctx, from, to, "")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := storage.AllTranslationsFor(ctx, to, "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"failed": "Failed", "nested.deep": "Deep"}, got.ShortKeys["auth"].Flatten())

	es, err := storage.AllTranslationsFor(ctx, to, "es")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Save": "Guardar"}, es.StringKeys["acme::string"])

	_, err = Synchronise(ctx, from, to, "fr")
	require.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestOpenDriver(t *testing.T) {
	t.Parallel()

	d, err := OpenDriver(context.Background(), DriverOptions{Type: storage.FileDriver, Fs: afero.NewMemMapFs(), LangPath: "/lang"})
	require.NoError(t, err)
	assert.IsType(t, &filestore.Driver{}, d)
	require.NoError(t, CloseDriver(d))

	_, err = OpenDriver(context.Background(), DriverOptions{Type: "redis"})
	require.ErrorIs(t, err, storage.ErrInvalidDriver)
}

func TestLanguageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{code: "de", want: "German"},
		{code: "pt-BR", want: "Brazilian Portuguese"},
		{code: "not a code", want: "not a code"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, LanguageName(tt.code))
		})
	}
}
