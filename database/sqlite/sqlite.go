// Package sqlite implements the SQLite database strategy on top of
// database/sql with the CGO-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crobledo/plinth"
)

// DefaultPath is the fallback database file used when the configured path
// cannot be validated.
const DefaultPath = "database_sqlite.db"

// sessionPragmas are applied on every session open. WAL and NORMAL
// synchronous trade durability granularity for concurrent-read
// throughput; busy_timeout bounds lock waits at 20s.
var sessionPragmas = []string{
	"PRAGMA busy_timeout=20000",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=10000",
}

// Strategy is the SQLite implementation of the database strategy contract.
// There are no pooling semantics: the database serializes writes itself,
// and sessions may be used from any goroutine.
type Strategy struct {
	path   string
	logger *slog.Logger
	errs   *plinth.ErrorHandler

	mu        sync.Mutex
	db        *sql.DB
	validated bool
}

// New returns an uninitialized SQLite strategy. The path is normalized
// immediately: relative paths become absolute and missing parent
// directories are created. A path that cannot be validated falls back to
// DefaultPath; that is a recoverable error, logged but never raised.
func New(settings plinth.SQLiteSettings, logger *slog.Logger) (*Strategy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Strategy{
		logger: logger,
		errs:   plinth.NewErrorHandler(logger),
	}

	path := settings.Path
	if path == "" {
		path = DefaultPath
	}
	s.path = s.normalizePath(path)
	return s, nil
}

// normalizePath makes path absolute and ensures its parent directory
// exists, falling back to DefaultPath in the working directory on failure.
func (s *Strategy) normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		s.errs.Handle(err, plinth.KindFileIO, fmt.Sprintf("resolve sqlite path %s", path), false)
		return s.fallbackPath()
	}

	if dir := filepath.Dir(abs); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			s.errs.Handle(err, plinth.KindFileIO, fmt.Sprintf("create sqlite directory %s", dir), false)
			return s.fallbackPath()
		}
	}

	s.logger.Debug("sqlite path validated", "path", abs)
	return abs
}

func (s *Strategy) fallbackPath() string {
	abs, err := filepath.Abs(DefaultPath)
	if err != nil {
		return DefaultPath
	}
	s.logger.Warn("falling back to default sqlite database", "path", abs)
	return abs
}

// Backend returns the registry name of this strategy.
func (s *Strategy) Backend() string { return "sqlite" }

// Path returns the normalized database file path.
func (s *Strategy) Path() string { return s.path }

// ConnectionString returns the sqlite:///absolute-path URI for the
// normalized database file.
func (s *Strategy) ConnectionString() (string, error) {
	return "sqlite:///" + s.path, nil
}

// Initialize opens the database handle. Failure is fatal; unlike path
// validation there is no fallback once the engine itself cannot open.
func (s *Strategy) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Strategy) initLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return s.errs.Handle(err, plinth.KindDatabase, fmt.Sprintf("initialize sqlite engine %s", s.path), true)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return s.errs.Handle(err, plinth.KindDatabase, fmt.Sprintf("initialize sqlite engine %s", s.path), true)
	}

	s.db = db
	s.logger.Info("sqlite engine initialized", "path", s.path)
	return nil
}

// Session returns a dedicated connection with the session pragmas
// applied. The same-thread restriction of classic SQLite bindings does
// not apply; sessions may cross goroutines.
func (s *Strategy) Session(ctx context.Context) (plinth.Session, error) {
	db, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, s.errs.Handle(err, plinth.KindDatabase, "open sqlite session", false)
	}

	for _, pragma := range sessionPragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, s.errs.Handle(err, plinth.KindDatabase, fmt.Sprintf("apply %s", pragma), false)
		}
	}
	return &session{conn: conn}, nil
}

func (s *Strategy) engine(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	return s.db, nil
}

// ValidateConnection runs the liveness query through a fresh session and
// records the result. Failures are logged, never raised.
func (s *Strategy) ValidateConnection(ctx context.Context) bool {
	sess, err := s.Session(ctx)
	if err == nil {
		err = plinth.Liveness(ctx, sess)
		_ = sess.Close()
	}

	s.mu.Lock()
	s.validated = err == nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("sqlite connection validation failed", "err", err)
		return false
	}
	s.logger.Info("sqlite connection validated")
	return true
}

// Validated reports whether the most recent ValidateConnection call
// succeeded.
func (s *Strategy) Validated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validated
}

// CreateTables applies the registered schema. Failure is fatal.
func (s *Strategy) CreateTables(ctx context.Context) error {
	db, err := s.engine(ctx)
	if err != nil {
		return err
	}
	if err := migrate(ctx, db); err != nil {
		return s.errs.Handle(err, plinth.KindDatabase, "create sqlite tables", true)
	}
	s.logger.Info("sqlite schema verified")
	return nil
}

// Close closes the database handle.
func (s *Strategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

type session struct {
	conn *sql.Conn
}

func (s *session) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.conn.ExecContext(ctx, query, args...)
	return err
}

func (s *session) QueryRow(ctx context.Context, query string, dest ...any) error {
	return s.conn.QueryRowContext(ctx, query).Scan(dest...)
}

func (s *session) Close() error {
	return s.conn.Close()
}
