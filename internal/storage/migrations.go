package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies schema migrations to db. Each statement is idempotent
// (IF NOT EXISTS), mirroring the teacher's postgres_migrations.go shape.
// Column names ("type", "value", "created") follow spec.md §6's note that
// the historical schema uses those literal names rather than "kind" for
// migration compatibility.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// One row per identifier kind; value is the next seed to consume.
		`CREATE TABLE IF NOT EXISTS seed (
            type  VARCHAR(64) PRIMARY KEY,
            value BIGINT NOT NULL
        )`,
		// One row per identifier ever minted. Append-only.
		`CREATE TABLE IF NOT EXISTS minted (
            type       VARCHAR(64) NOT NULL REFERENCES seed(type),
            identifier VARCHAR(64) NOT NULL,
            created    TIMESTAMP WITH TIME ZONE NOT NULL,
            PRIMARY KEY (type, identifier)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_minted_type ON minted (type)`,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
