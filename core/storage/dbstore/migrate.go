// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package dbstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const versionTable = "schema_migrations"

// migrate applies every migration newer than the recorded schema version. Each
// migration runs in its own transaction together with its version row.
func migrate(ctx context.Context, db *sqlx.DB, migrations []string) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS `+versionTable+` ("version" INTEGER NOT NULL PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to create %s: %w", versionTable, err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}

		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		insert := tx.Rebind(`INSERT INTO ` + versionTable + ` ("version") VALUES (?)`)
		if _, err := tx.ExecContext(ctx, insert, version); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}

		log.Info().
			Str("sys", "dbstore").
			Int("version", version).
			Msg("Applied schema migration")
	}

	return nil
}

func schemaVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var version int

	if err := db.GetContext(ctx, &version,
		`SELECT COALESCE(MAX("version"), 0) FROM `+versionTable); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	return version, nil
}
