// Package database selects and manages the relational backend behind the
// service. A fixed registry maps a backend name (postgresql, sqlite,
// mysql) to a strategy implementation; the factory constructs the
// strategy, builds its connection pool, validates connectivity, and
// creates the schema before handing it to the caller.
//
// # Usage
//
//	strategy, err := database.CreateStrategy(ctx, settings, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer strategy.Close()
//
//	err = database.WithSession(ctx, strategy, func(sess plinth.Session) error {
//	    return sess.Exec(ctx, "INSERT ...")
//	})
//
// CreateStrategy never returns a strategy that failed its liveness check.
//
// # Subpackages
//
//   - database/postgres: pgx connection pool, bounded connect retries
//   - database/sqlite: modernc.org/sqlite, per-session pragmas, WAL mode
//   - database/mysql: go-sql-driver/mysql, utf8mb4 session setup
package database
