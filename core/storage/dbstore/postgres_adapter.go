// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package dbstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver
)

// postgresAdapter provides support for PostgreSQL databases.
type postgresAdapter struct{}

func (postgresAdapter) DriverName() string {
	return "postgres"
}

func (postgresAdapter) PostCreate(_ context.Context, _ *sqlx.DB) error {
	return nil
}

func (postgresAdapter) Migrations(t Tables) []string {
	return []string{
		// 1
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    "id" BIGSERIAL PRIMARY KEY,
    "name" VARCHAR(255) NULL,
    "language" VARCHAR(255) NOT NULL UNIQUE,
    "created_at" TIMESTAMP NULL,
    "updated_at" TIMESTAMP NULL
);`, t.Languages),
		// 2
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    "id" BIGSERIAL PRIMARY KEY,
    "language_id" BIGINT NOT NULL REFERENCES %[2]s ("id") ON DELETE CASCADE,
    "group" VARCHAR(255) NULL,
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
