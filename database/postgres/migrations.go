package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type tableMigration struct {
	name string
	up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// tableMigrations is the registered schema. Downstream projects append
// their own tables here.
func tableMigrations() []tableMigration {
	return []tableMigration{
		{name: "app_metadata", up: createAppMetadataTable},
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range tableMigrations() {
		if err := m.up(ctx, pool); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}

func createAppMetadataTable(ctx context.Context, pool *pgxpool.Pool) error {
	sql := `
		CREATE TABLE IF NOT EXISTS app_metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create app_metadata table: %w", err)
	}
	return nil
}
