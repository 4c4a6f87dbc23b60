package mysql

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
	// VARCHAR(191) keeps the primary key inside InnoDB's index size limit
	// under utf8mb4.
	query := "CREATE TABLE IF NOT EXISTS app_metadata (" +
		"`key` VARCHAR(191) NOT NULL PRIMARY KEY, " +
		"value TEXT NOT NULL, " +
		"updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create app_metadata table: %w", err)
	}
	return nil
}
