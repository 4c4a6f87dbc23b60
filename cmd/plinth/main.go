package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "plinth",
	Short:   "Web service boilerplate over a pluggable relational backend",
	Long: `Plinth is a minimal web-service boilerplate wiring an HTTP server to
one of three relational backends (PostgreSQL, SQLite, MySQL) selected by
configuration.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-backend", "", "database backend: postgresql, sqlite, mysql (default: sqlite, env: PLINTH_DATABASE_BACKEND or DB)")
	rootCmd.PersistentFlags().String("db-path", "", "sqlite database file (default: database_sqlite.db, env: PLINTH_DATABASE_SQLITE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
