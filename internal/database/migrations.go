package database

import (
	"context"
	"fmt"
)

// migration defines a single idempotent schema migration.
type migration struct {
	name  string
	sql   string
	check string // query that returns true if the migration is already applied
}

// migrations is the ordered list of schema migrations to apply.
// Each must be idempotent (use IF NOT EXISTS, IF EXISTS, etc.).
var migrations = []migration{
	{
		name:  "add translations.detected_language",
		sql:   `ALTER TABLE translations ADD COLUMN IF NOT EXISTS detected_language text NOT NULL DEFAULT ''`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'translations' AND column_name = 'detected_language')`,
	},
	{
		name:  "add audio_injections.failure_reason",
		sql:   `ALTER TABLE audio_injections ADD COLUMN IF NOT EXISTS failure_reason text`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'audio_injections' AND column_name = 'failure_reason')`,
	},
	{
		name:  "add audio_injections status+updated_at index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_audio_injections_status ON audio_injections (status, updated_at)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_audio_injections_status')`,
	},
	{
		name:  "add calls bridge_partner partial index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_calls_bridge_partner ON calls (bridge_partner_id) WHERE bridge_partner_id IS NOT NULL`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_calls_bridge_partner')`,
	},
}

// Migrate applies any pending migrations in order.
func (db *DB) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		var applied bool
		if err := db.Pool.QueryRow(ctx, m.check).Scan(&applied); err != nil {
			return fmt.Errorf("migration check %q: %w", m.name, err)
		}
		if applied {
			continue
		}

		db.log.Info().Str("migration", m.name).Msg("applying migration")
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
	}
	return nil
}
