// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package dbstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// sqlite3Adapter provides support for SQLite3 databases.
type sqlite3Adapter struct{}

func (sqlite3Adapter) DriverName() string {
	return "sqlite3"
}

func (sqlite3Adapter) PostCreate(ctx context.Context, db *sqlx.DB) error {
	// SQLite serialises writers anyway, and an in-memory database only lives
	// as long as its connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to run %q: %w", pragma, err)
		}
	}

	return nil
}

func (sqlite3Adapter) Migrations(t Tables) []string {
	return []string{
		// 1
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "name" TEXT NULL,
    "language" TEXT NOT NULL UNIQUE,
    "created_at" TIMESTAMP NULL,
    "updated_at" TIMESTAMP NULL
);`, t.Languages),
		// 2
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "language_id" INTEGER NOT NULL REFERENCES %[2]s ("id") ON DELETE CASCADE,
    "group" TEXT NULL,
    "key" TEXT NOT NULL,
    "value" TEXT NULL,
    "created_at" TIMESTAMP NULL,
    "updated_at" TIMESTAMP NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_lookup_index ON %[1]s ("language_id", "group", "key");`, t.Translations, t.Languages),
		// 3
		legacyGroupMigration(t),
	}
}
