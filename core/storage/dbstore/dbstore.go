// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package dbstore stores translations in a SQL database.

Two tables are used. The languages table holds one row per language code and
the translations table holds one row per (language, group, key). String keys
live in the group "string", or "vendor::string" for vendor namespaces.

Rows written by older releases with a NULL or "single" group are rewritten to
"string" by the schema migrations, and a NULL group that slips in afterwards is
read as "string".
*/
package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

// Default table names.
const (
	DefaultLanguagesTable    = "languages"
	DefaultTranslationsTable = "translations"
)

var (
	errInvalidTable = errors.New("invalid table name")

	tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Options configures a Driver.
type Options struct {
	// Driver is the database kind: "sqlite3" or "postgres".
	Driver string
	// DSN is passed to the database/sql driver unchanged.
	DSN string

	LanguagesTable    string
	TranslationsTable string
}

// Driver is a storage.Driver backed by a SQL database.
//
// A Driver is safe for concurrent use. Writes to the same key race and the
// last writer wins.
type Driver struct {
	db     *sqlx.DB
	tables Tables
}

var _ storage.Driver = (*Driver)(nil)

// Open connects to the database described by opts and migrates its schema.
func Open(ctx context.Context, opts Options) (*Driver, error) {
	adapter, err := newAdapter(opts.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(adapter.DriverName(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", adapter.DriverName(), err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to connect to %s database: %w", adapter.DriverName(), err)
	}

	d, err := New(ctx, db, opts)
	if err != nil {
		db.Close()

		return nil, err
	}

	return d, nil
}

// New wraps an open connection pool and migrates its schema. The database kind
// is taken from db.DriverName.
func New(ctx context.Context, db *sqlx.DB, opts Options) (*Driver, error) {
	adapter, err := newAdapter(db.DriverName())
	if err != nil {
		return nil, err
	}

	tables := Tables{
		Languages:    opts.LanguagesTable,
		Translations: opts.TranslationsTable,
	}

	if tables.Languages == "" {
		tables.Languages = DefaultLanguagesTable
	}

	if tables.Translations == "" {
		tables.Translations = DefaultTranslationsTable
	}

	for _, name := range []string{tables.Languages, tables.Translations} {
		if !tablePattern.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", errInvalidTable, name)
		}
	}

	if err := adapter.PostCreate(ctx, db); err != nil {
		return nil, err
	}

	if err := migrate(ctx, db, adapter.Migrations(tables)); err != nil {
		return nil, err
	}

	return &Driver{db: db, tables: tables}, nil
}

// Close closes the underlying connection pool.
func (d *Driver) Close() error {
	return d.db.Close()
}

// SchemaVersion returns the number of applied migrations.
func (d *Driver) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, d.db)
}

type languageRow struct {
	Language string         `db:"language"`
	Name     sql.NullString `db:"name"`
}

type translationRow struct {
	Group sql.NullString `db:"group"`
	Key   string         `db:"key"`
	Value sql.NullString `db:"value"`
}

// groupName returns the group of r, mapping a legacy NULL to "string".
func (r translationRow) groupName() string {
	if !r.Group.Valid {
		return catalog.StringNamespace
	}

	return r.Group.String
}

// AllLanguages returns every language row. A NULL name falls back to the code.
func (d *Driver) AllLanguages(ctx context.Context) (catalog.Languages, error) {
	var rows []languageRow

	query := fmt.Sprintf(`SELECT "language", "name" FROM %s ORDER BY "language"`, d.tables.Languages)
	if err := d.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	languages := make(catalog.Languages, len(rows))

	for _, row := range rows {
		name := row.Name.String
		if !row.Name.Valid || name == "" {
			name = row.Language
		}

		languages[row.Language] = name
	}

	return languages, nil
}

// LanguageExists reports whether a row exists for language.
func (d *Driver) LanguageExists(ctx context.Context, language string) (bool, error) {
	_, err := d.languageID(ctx, d.db, language)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// AddLanguage inserts a language row. name may be empty.
func (d *Driver) AddLanguage(ctx context.Context, language, name string) error {
	if err := storage.ValidateLanguage(language); err != nil {
		return err
	}

	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := d.languageID(ctx, tx, language)

		switch {
		case err == nil:
			return &storage.LanguageExistsError{Language: language}
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		return d.insertLanguage(ctx, tx, language, name)
	})
}

// AllShortKeyTranslationsFor returns the short-key groups of language,
// including vendor groups. Groups are flat: every key is a leaf under its
// full dotted key.
func (d *Driver) AllShortKeyTranslationsFor(ctx context.Context, language string) (map[string]catalog.Group, error) {
	rows, err := d.translations(ctx, language, false)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]catalog.Group)

	for _, row := range rows {
		group := row.groupName()

		g, ok := groups[group]
		if !ok {
			g = make(catalog.Group)
			groups[group] = g
		}

		g[row.Key] = catalog.Leaf(row.Value.String)
	}

	return groups, nil
}

// AllStringKeyTranslationsFor returns the string-key namespaces of language.
func (d *Driver) AllStringKeyTranslationsFor(ctx context.Context, language string) (map[string]map[string]string, error) {
	rows, err := d.translations(ctx, language, true)
	if err != nil {
		return nil, err
	}

	namespaces := make(map[string]map[string]string)

	for _, row := range rows {
		namespace := row.groupName()

		ns, ok := namespaces[namespace]
		if !ok {
			ns = make(map[string]string)
			namespaces[namespace] = ns
		}

		ns[row.Key] = row.Value.String
	}

	return namespaces, nil
}

// AllShortKeyGroupsFor returns the distinct short-key groups of language.
func (d *Driver) AllShortKeyGroupsFor(ctx context.Context, language string) ([]string, error) {
	query := d.db.Rebind(fmt.Sprintf(`
SELECT DISTINCT t."group" FROM %[1]s t
JOIN %[2]s l ON l."id" = t."language_id"
WHERE l."language" = ? AND %[3]s
ORDER BY t."group"`, d.tables.Translations, d.tables.Languages, shortKeyCondition))

	groups := []string{}
	if err := d.db.SelectContext(ctx, &groups, query, language); err != nil {
		return nil, fmt.Errorf("failed to list groups of %s: %w", language, err)
	}

	return groups, nil
}

// AddShortKeyTranslation upserts a short-key row, creating language if needed.
func (d *Driver) AddShortKeyTranslation(ctx context.Context, language, group, key, value string) error {
	if group == "" || catalog.IsStringNamespace(group) {
		return fmt.Errorf("%w: %q", errInvalidGroup, group)
	}

	return d.upsert(ctx, language, group, key, value)
}

// AddStringKeyTranslation upserts a string-key row in namespace ("string" or
// "vendor::string"), creating language if needed.
func (d *Driver) AddStringKeyTranslation(ctx context.Context, language, namespace, key, value string) error {
	if namespace == "" {
		namespace = catalog.StringNamespace
	}

	if !catalog.IsStringNamespace(namespace) {
		return fmt.Errorf("%w: %q", errInvalidGroup, namespace)
	}

	return d.upsert(ctx, language, namespace, key, value)
}

var errInvalidGroup = errors.New("invalid translation group")

const (
	stringKeyCondition = `(t."group" IS NULL OR t."group" = 'string' OR t."group" LIKE '%::string')`
	shortKeyCondition  = `(t."group" IS NOT NULL AND t."group" <> 'string' AND t."group" NOT LIKE '%::string')`
)

func (d *Driver) translations(ctx context.Context, language string, stringKeys bool) ([]translationRow, error) {
	condition := shortKeyCondition
	if stringKeys {
		condition = stringKeyCondition
	}

	// Ordering by key makes "a" win over "a.b" when both exist.
	query := d.db.Rebind(fmt.Sprintf(`
SELECT t."group", t."key", t."value" FROM %[1]s t
JOIN %[2]s l ON l."id" = t."language_id"
WHERE l."language" = ? AND %[3]s
ORDER BY t."group", t."key"`, d.tables.Translations, d.tables.Languages, condition))

	var rows []translationRow
	if err := d.db.SelectContext(ctx, &rows, query, language); err != nil {
		return nil, fmt.Errorf("failed to read translations of %s: %w", language, err)
	}

	return rows, nil
}

func (d *Driver) upsert(ctx context.Context, language, group, key, value string) error {
	if err := storage.ValidateLanguage(language); err != nil {
		return err
	}

	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		languageID, err := d.languageID(ctx, tx, language)
		if errors.Is(err, sql.ErrNoRows) {
			if err := d.insertLanguage(ctx, tx, language, ""); err != nil {
				return err
			}

			languageID, err = d.languageID(ctx, tx, language)
		}

		if err != nil {
			return err
		}

		now := time.Now().UTC()

		var id int64

		query := tx.Rebind(fmt.Sprintf(
			`SELECT "id" FROM %s WHERE "language_id" = ? AND "group" = ? AND "key" = ?`, d.tables.Translations))

		err = tx.GetContext(ctx, &id, query, languageID, group, key)

		switch {
		case err == nil:
			query = tx.Rebind(fmt.Sprintf(
				`UPDATE %s SET "value" = ?, "updated_at" = ? WHERE "id" = ?`, d.tables.Translations))
			_, err = tx.ExecContext(ctx, query, value, now, id)
		case errors.Is(err, sql.ErrNoRows):
			query = tx.Rebind(fmt.Sprintf(
				`INSERT INTO %s ("language_id", "group", "key", "value", "created_at", "updated_at") VALUES (?, ?, ?, ?, ?, ?)`,
				d.tables.Translations))
			_, err = tx.ExecContext(ctx, query, languageID, group, key, value, now, now)
		}

		if err != nil {
			return fmt.Errorf("failed to write %s %s.%s: %w", language, group, key, err)
		}

		return nil
	})
}

func (d *Driver) languageID(ctx context.Context, q sqlx.QueryerContext, language string) (int64, error) {
	var id int64

	query := sqlx.Rebind(sqlx.BindType(d.db.DriverName()),
		fmt.Sprintf(`SELECT "id" FROM %s WHERE "language" = ?`, d.tables.Languages))

	if err := sqlx.GetContext(ctx, q, &id, query, language); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}

		return 0, fmt.Errorf("failed to look up language %s: %w", language, err)
	}

	return id, nil
}

func (d *Driver) insertLanguage(ctx context.Context, tx *sqlx.Tx, language, name string) error {
	now := time.Now().UTC()

	query := tx.Rebind(fmt.Sprintf(
		`INSERT INTO %s ("language", "name", "created_at", "updated_at") VALUES (?, ?, ?, ?)`, d.tables.Languages))

	if _, err := tx.ExecContext(ctx, query, language, sql.NullString{String: name, Valid: name != ""}, now, now); err != nil {
		return fmt.Errorf("failed to create language %s: %w", language, err)
	}

	log.Info().
		Str("sys", "dbstore").
		Str("language", language).
		Msg("Created language")

	return nil
}

func (d *Driver) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
