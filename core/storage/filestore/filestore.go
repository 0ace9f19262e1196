// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package filestore stores translations as files below a language root:

	{root}/{language}/{group}.php
	{root}/{language}.json
	{root}/vendor/{vendor}/{language}/{group}.php
	{root}/vendor/{vendor}/{language}.json

Short-key groups are PHP files returning a var_export style array, with dotted
keys nested. String keys live in one pretty printed JSON object per language.

Every write rewrites the whole file. Two writers updating the same file at the
same time race and the last one wins; the driver takes no locks.
*/
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

const (
	vendorDir = "vendor"
	phpExt    = ".php"
	jsonExt   = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

var (
	errReservedLanguage = errors.New("language code is reserved")
	errInvalidGroup     = errors.New("invalid group name")
	errUnknownFileKey   = errors.New("no translation file for key")
)

// Driver is a storage.Driver over a filesystem.
type Driver struct {
	fs   afero.Fs
	root string
}

var _ storage.Driver = (*Driver)(nil)

// New returns a Driver storing translations below root on fs.
func New(fs afero.Fs, root string) *Driver {
	return &Driver{fs: fs, root: filepath.Clean(root)}
}

// AllLanguages lists every language directory and every top-level JSON file.
// The display name of a file backed language is its code.
func (d *Driver) AllLanguages(_ context.Context) (catalog.Languages, error) {
	languages := make(catalog.Languages)

	entries, err := afero.ReadDir(d.fs, d.root)
	if os.IsNotExist(err) {
		return languages, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.root, err)
	}

	for _, entry := range entries {
		name := entry.Name()

		switch {
		case entry.IsDir() && name != vendorDir:
			languages[name] = name
		case !entry.IsDir() && filepath.Ext(name) == jsonExt:
			code := strings.TrimSuffix(name, jsonExt)
			languages[code] = code
		}
	}

	return languages, nil
}

func (d *Driver) LanguageExists(ctx context.Context, language string) (bool, error) {
	languages, err := d.AllLanguages(ctx)
	if err != nil {
		return false, err
	}

	_, ok := languages[language]

	return ok, nil
}

// AddLanguage creates the language directory and an empty string key file.
// The name is not stored by this backend.
func (d *Driver) AddLanguage(ctx context.Context, language, _ string) error {
	if err := d.validateLanguage(language); err != nil {
		return err
	}

	exists, err := d.LanguageExists(ctx, language)
	if err != nil {
		return err
	}

	if exists {
		return &storage.LanguageExistsError{Language: language}
	}

	return d.createLanguage(language)
}

func (d *Driver) createLanguage(language string) error {
	dir := filepath.Join(d.root, language)
	if err := d.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	jsonPath := d.stringKeyPath("", language)

	exists, err := afero.Exists(d.fs, jsonPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", jsonPath, err)
	}

	if !exists {
		if err := d.writeJSON(jsonPath, nil); err != nil {
			return err
		}
	}

	log.Info().
		Str("sys", "filestore").
		Str("language", language).
		Msg("Created language")

	return nil
}

// ensureLanguage creates language unless it is already known.
func (d *Driver) ensureLanguage(ctx context.Context, language string) error {
	if err := d.validateLanguage(language); err != nil {
		return err
	}

	exists, err := d.LanguageExists(ctx, language)
	if err != nil || exists {
		return err
	}

	return d.createLanguage(language)
}

func (d *Driver) AllShortKeyTranslationsFor(ctx context.Context, language string) (map[string]catalog.Group, error) {
	groups := make(map[string]catalog.Group)

	if err := d.readGroups(ctx, groups, filepath.Join(d.root, language), ""); err != nil {
		return nil, err
	}

	vendors, err := d.vendors()
	if err != nil {
		return nil, err
	}

	for _, vendor := range vendors {
		dir := filepath.Join(d.root, vendorDir, vendor, language)
		if err := d.readGroups(ctx, groups, dir, vendor); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

func (d *Driver) AllStringKeyTranslationsFor(_ context.Context, language string) (map[string]map[string]string, error) {
	namespaces := make(map[string]map[string]string)

	if err := d.readNamespace(namespaces, "", language); err != nil {
		return nil, err
	}

	vendors, err := d.vendors()
	if err != nil {
		return nil, err
	}

	for _, vendor := range vendors {
		if err := d.readNamespace(namespaces, vendor, language); err != nil {
			return nil, err
		}
	}

	return namespaces, nil
}

func (d *Driver) AllShortKeyGroupsFor(ctx context.Context, language string) ([]string, error) {
	groups, err := d.AllShortKeyTranslationsFor(ctx, language)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

// AddShortKeyTranslation upserts key in the group file, nesting dotted keys.
func (d *Driver) AddShortKeyTranslation(ctx context.Context, language, group, key, value string) error {
	if err := d.ensureLanguage(ctx, language); err != nil {
		return err
	}

	filePath, err := d.groupPath(language, group)
	if err != nil {
		return err
	}

	g, err := d.readGroup(filePath)
	if err != nil {
		return err
	}

	g.Set(key, value)

	if err := d.fs.MkdirAll(filepath.Dir(filePath), dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(filePath), err)
	}

	if err := afero.WriteFile(d.fs, filePath, encodePHP(g), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	return nil
}

// AddStringKeyTranslation upserts key in the JSON file of namespace. Only the
// vendor part of namespace is significant.
func (d *Driver) AddStringKeyTranslation(ctx context.Context, language, namespace, key, value string) error {
	if err := d.ensureLanguage(ctx, language); err != nil {
		return err
	}

	vendor, _ := catalog.SplitNamespace(namespace)
	if err := validateSegment(vendor, true); err != nil {
		return err
	}

	filePath := d.stringKeyPath(vendor, language)

	translations, err := d.readJSON(filePath)
	if err != nil {
		return err
	}

	translations[key] = value

	if err := d.fs.MkdirAll(filepath.Dir(filePath), dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(filePath), err)
	}

	return d.writeJSON(filePath, translations)
}

// FileMap maps the dotted key of every translation file to its path relative
// to the root, for example "en.validation" to "en/validation.php",
// "vendor.acme.en.messages" to "vendor/acme/en/messages.php" and "en" to
// "en.json".
func (d *Driver) FileMap(_ context.Context) (map[string]string, error) {
	files := make(map[string]string)

	exists, err := afero.DirExists(d.fs, d.root)
	if err != nil || !exists {
		return files, err
	}

	err = afero.Walk(d.fs, d.root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		ext := filepath.Ext(filePath)
		if info.IsDir() || (ext != phpExt && ext != jsonExt) {
			return nil
		}

		rel, err := filepath.Rel(d.root, filePath)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		files[strings.ReplaceAll(strings.TrimSuffix(rel, ext), "/", ".")] = rel

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.root, err)
	}

	return files, nil
}

// TranslationsFromFile reads the file registered under fileKey in FileMap.
func (d *Driver) TranslationsFromFile(ctx context.Context, fileKey string) (catalog.Group, error) {
	files, err := d.FileMap(ctx)
	if err != nil {
		return nil, err
	}

	rel, ok := files[fileKey]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownFileKey, fileKey)
	}

	filePath := filepath.Join(d.root, filepath.FromSlash(rel))

	if path.Ext(rel) == phpExt {
		return d.readGroup(filePath)
	}

	translations, err := d.readJSON(filePath)
	if err != nil {
		return nil, err
	}

	g := make(catalog.Group, len(translations))
	for key, value := range translations {
		g[key] = catalog.Leaf(value)
	}

	return g, nil
}

func (d *Driver) readGroups(ctx context.Context, groups map[string]catalog.Group, dir, vendor string) error {
	exists, err := afero.DirExists(d.fs, dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	if !exists {
		return nil
	}

	err = afero.Walk(d.fs, dir, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() || filepath.Ext(filePath) != phpExt {
			return nil
		}

		rel, err := filepath.Rel(dir, filePath)
		if err != nil {
			return err
		}

		g, err := d.readGroup(filePath)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(strings.TrimSuffix(rel, phpExt))
		groups[catalog.JoinNamespace(vendor, name)] = g

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read groups in %s: %w", dir, err)
	}

	return nil
}

func (d *Driver) readNamespace(namespaces map[string]map[string]string, vendor, language string) error {
	filePath := d.stringKeyPath(vendor, language)

	exists, err := afero.Exists(d.fs, filePath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	if !exists {
		return nil
	}

	translations, err := d.readJSON(filePath)
	if err != nil {
		return err
	}

	namespaces[catalog.JoinNamespace(vendor, catalog.StringNamespace)] = translations

	return nil
}

// readGroup returns the content of a group file, or an empty group if the
// file does not exist.
func (d *Driver) readGroup(filePath string) (catalog.Group, error) {
	src, err := afero.ReadFile(d.fs, filePath)
	if os.IsNotExist(err) {
		return make(catalog.Group), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	g, err := decodePHP(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	return g, nil
}

// readJSON returns the content of a string key file, or an empty map if the
// file does not exist.
func (d *Driver) readJSON(filePath string) (map[string]string, error) {
	src, err := afero.ReadFile(d.fs, filePath)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	translations, err := decodeJSON(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	return translations, nil
}

func (d *Driver) writeJSON(filePath string, translations map[string]string) error {
	out, err := encodeJSON(translations)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(d.fs, filePath, out, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	return nil
}

// vendors lists the vendor directories below the root.
func (d *Driver) vendors() ([]string, error) {
	entries, err := afero.ReadDir(d.fs, filepath.Join(d.root, vendorDir))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}

	var vendors []string

	for _, entry := range entries {
		if entry.IsDir() {
			vendors = append(vendors, entry.Name())
		}
	}

	return vendors, nil
}

func (d *Driver) groupPath(language, group string) (string, error) {
	vendor, name := catalog.SplitNamespace(group)

	if err := validateSegment(vendor, true); err != nil {
		return "", err
	}

	for segment := range strings.SplitSeq(name, "/") {
		if err := validateSegment(segment, false); err != nil {
			return "", err
		}
	}

	file := filepath.FromSlash(name) + phpExt

	if vendor != "" {
		return filepath.Join(d.root, vendorDir, vendor, language, file), nil
	}

	return filepath.Join(d.root, language, file), nil
}

func (d *Driver) stringKeyPath(vendor, language string) string {
	if vendor != "" {
		return filepath.Join(d.root, vendorDir, vendor, language+jsonExt)
	}

	return filepath.Join(d.root, language+jsonExt)
}

func (d *Driver) validateLanguage(language string) error {
	if err := storage.ValidateLanguage(language); err != nil {
		return err
	}

	if language == vendorDir {
		return fmt.Errorf("%w: %q", errReservedLanguage, language)
	}

	return nil
}

// validateSegment rejects path segments that would escape the root.
func validateSegment(segment string, allowEmpty bool) error {
	if segment == "" && allowEmpty {
		return nil
	}

	if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, `\/`) {
		return fmt.Errorf("%w: %q", errInvalidGroup, segment)
	}

	return nil
}
