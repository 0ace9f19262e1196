// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package dbstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var errUnsupportedDatabase = errors.New("unsupported database driver")

// Tables names the tables used by a Driver.
type Tables struct {
	Languages    string
	Translations string
}

// Adapter provides the database specific parts of a Driver.
type Adapter interface {
	// DriverName is the database/sql driver to open.
	DriverName() string
	// PostCreate configures a freshly opened pool.
	PostCreate(ctx context.Context, db *sqlx.DB) error
	// Migrations returns the schema migrations, oldest first. Version n is
	// the statement at index n-1.
	Migrations(t Tables) []string
}

func newAdapter(driver string) (Adapter, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return sqlite3Adapter{}, nil
	case "postgres", "postgresql", "pgsql":
		return postgresAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedDatabase, driver)
	}
}

// legacyGroupMigration rewrites the historical string-key group markers (NULL
// and "single") to "string". It is valid SQL for every supported database.
func legacyGroupMigration(t Tables) string {
	return fmt.Sprintf(`
UPDATE %[1]s SET "group" = 'string' WHERE "group" IS NULL OR "group" = 'single';
UPDATE %[1]s SET "group" = substr("group", 1, length("group") - 6) || 'string' WHERE "group" LIKE '%%::single';
`, t.Translations)
}
