package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/crobledo/plinth"
	"github.com/crobledo/plinth/database/mysql"
	"github.com/crobledo/plinth/database/postgres"
	"github.com/crobledo/plinth/database/sqlite"
)

// Strategy is the backend-specific connection and session contract. One
// strategy is created per process; its engine (connection pool) is shared
// by every session it hands out.
type Strategy interface {
	// Backend returns the registry name of the backend.
	Backend() string
	// ConnectionString builds the backend DSN from settings. It fails
	// with a configuration error when required fields are missing.
	ConnectionString() (string, error)
	// Initialize builds the pooled engine with backend-specific tuning.
	// Calling Initialize on an initialized strategy is a no-op.
	Initialize(ctx context.Context) error
	// Session returns a new session bound to the engine, lazily
	// initializing the engine when needed.
	Session(ctx context.Context) (plinth.Session, error)
	// ValidateConnection opens a session, runs a liveness query, and
	// reports the result. It never returns an error; failures are logged
	// and reported as false.
	ValidateConnection(ctx context.Context) bool
	// CreateTables applies the registered schema. It is idempotent, and
	// a failure is fatal: the process cannot proceed without schema.
	CreateTables(ctx context.Context) error
	// Close releases the engine and all pooled connections.
	Close() error
}

// Constructor builds an uninitialized strategy from settings.
type Constructor func(settings plinth.Settings, logger *slog.Logger) (Strategy, error)

// The backend registry is fixed: adding a backend means adding an entry
// here and a subpackage implementing Strategy.
var constructors = map[string]Constructor{
	"postgresql": func(settings plinth.Settings, logger *slog.Logger) (Strategy, error) {
		return postgres.New(settings.Postgres, logger)
	},
	"sqlite": func(settings plinth.Settings, logger *slog.Logger) (Strategy, error) {
		return sqlite.New(settings.SQLite, logger)
	},
	"mysql": func(settings plinth.Settings, logger *slog.Logger) (Strategy, error) {
		return mysql.New(settings.MySQL, logger)
	},
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateStrategy looks up settings.Backend in the registry, constructs the
// strategy, initializes its engine, and verifies it end to end: a strategy
// is only returned after its liveness check passed and its schema exists.
// A strategy that fails validation is closed and never returned.
func CreateStrategy(ctx context.Context, settings plinth.Settings, logger *slog.Logger) (Strategy, error) {
	if logger == nil {
		logger = slog.Default()
	}

	constructor, ok := constructors[settings.Backend]
	if !ok {
		return nil, plinth.UnsupportedBackendError(settings.Backend, Backends())
	}

	strategy, err := constructor(settings, logger)
	if err != nil {
		return nil, err
	}

	if err := strategy.Initialize(ctx); err != nil {
		return nil, err
	}

	if !strategy.ValidateConnection(ctx) {
		_ = strategy.Close()
		return nil, plinth.FatalDatabaseError("validate connection",
			fmt.Errorf("could not validate %s connection", settings.Backend))
	}

	if err := strategy.CreateTables(ctx); err != nil {
		_ = strategy.Close()
		return nil, err
	}

	logger.Info("database strategy ready", "backend", settings.Backend)
	return strategy, nil
}

// WithSession obtains a session from strategy, hands it to fn, and
// guarantees release afterward, including when fn returns an error or
// panics. Every unit of work goes through here; a session must never
// outlive its unit of work.
func WithSession(ctx context.Context, strategy Strategy, fn func(plinth.Session) error) error {
	sess, err := strategy.Session(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}
