package playlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_entries (
          id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          url            TEXT NOT NULL,
          title          TEXT NOT NULL,
          thumbnail_url  TEXT NOT NULL DEFAULT '',
          duration_label TEXT NOT NULL DEFAULT '0:00',
          added_at       BIGINT NOT NULL,
          added_by       TEXT NOT NULL DEFAULT 'anonymous',
          sort_order     INT
      )
    `); err != nil {
		return err
	}

	// sort_order was added after the first deploy; keep the ALTER for
	// databases created from the original schema.
	if _, err := pool.Exec(ctx, `
		ALTER TABLE playlist_entries ADD COLUMN IF NOT EXISTS sort_order INT
	`); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_playlist_entries_order
      ON playlist_entries (sort_order, added_at)
    `); err != nil {
		return err
	}

	return nil
}
