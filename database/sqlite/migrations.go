package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type tableMigration struct {
	name string
	up   func(ctx context.Context, db *sql.DB) error
}

// tableMigrations is the registered schema. Downstream projects append
// their own tables here.
func tableMigrations() []tableMigration {
	return []tableMigration{
		{name: "app_metadata", up: createAppMetadataTable},
	}
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range tableMigrations() {
		if err := m.up(ctx, db); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}

func createAppMetadataTable(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS app_metadata (
			"key" TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create app_metadata table: %w", err)
	}
	return nil
}
