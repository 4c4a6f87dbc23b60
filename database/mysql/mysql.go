// Package mysql implements the MySQL database strategy on top of
// database/sql with the go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/crobledo/plinth"
	"github.com/crobledo/plinth/retry"
)

const (
	defaultPort = 3306

	connectTimeout = 10 * time.Second

	// Pool tuning: 5 idle connections with up to 10 overflow, recycled
	// after an hour.
	poolMaxOpenConns = 15
	poolMaxIdleConns = 5
	poolConnLifetime = time.Hour

	connectRetryAttempts = 3
	connectRetryBase     = 2 * time.Second
	sessionRetryAttempts = 2
	sessionRetryBase     = time.Second
)

// sessionSetup is issued on every session open. The charset is also
// pinned in the DSN, but pooled connections are recycled after
// ConnMaxLifetime and replacements must come up with the same settings,
// so the statements are reasserted per session.
var sessionSetup = []string{
	"SET NAMES utf8mb4",
	"SET CHARACTER SET utf8mb4",
	"SET character_set_connection=utf8mb4",
}

// Strategy is the MySQL implementation of the database strategy contract.
type Strategy struct {
	settings plinth.MySQLSettings
	logger   *slog.Logger
	errs     *plinth.ErrorHandler

	initRetry    retry.Policy
	sessionRetry retry.Policy

	mu        sync.Mutex
	db        *sql.DB
	validated bool
}

// New returns an uninitialized MySQL strategy. The engine is built on
// Initialize or lazily on the first session request.
func New(settings plinth.MySQLSettings, logger *slog.Logger) (*Strategy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Strategy{
		settings: settings,
		logger:   logger,
		errs:     plinth.NewErrorHandler(logger),
	}
	s.initRetry = retry.Policy{
		MaxAttempts: connectRetryAttempts,
		BaseDelay:   connectRetryBase,
		Multiplier:  2,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("mysql connect failed, retrying",
				"attempt", attempt, "delay", delay, "err", err)
		},
	}
	s.sessionRetry = retry.Policy{
		MaxAttempts: sessionRetryAttempts,
		BaseDelay:   sessionRetryBase,
		Multiplier:  2,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("mysql session open failed, retrying",
				"attempt", attempt, "delay", delay, "err", err)
		},
	}
	return s, nil
}

// Backend returns the registry name of this strategy.
func (s *Strategy) Backend() string { return "mysql" }

// ConnectionString builds the driver DSN from settings, pinning utf8mb4
// at connect time. Empty user or database name is a configuration error
// raised before any connection attempt.
func (s *Strategy) ConnectionString() (string, error) {
	if s.settings.User == "" {
		return "", plinth.ConfigError("build mysql connection string",
			fmt.Errorf("mysql user not specified"))
	}
	if s.settings.Database == "" {
		return "", plinth.ConfigError("build mysql connection string",
			fmt.Errorf("mysql database not specified"))
	}

	host := s.settings.Host
	if host == "" {
		host = "localhost"
	}
	port := s.settings.Port
	if port == 0 {
		port = defaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = s.settings.User
	cfg.Passwd = s.settings.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = s.settings.Database
	cfg.Timeout = connectTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	s.logger.Debug("mysql connection string built", "dsn", s.redacted())
	return cfg.FormatDSN(), nil
}

// redacted is the loggable form of the connection target, password
// replaced with ***.
func (s *Strategy) redacted() string {
	host := s.settings.Host
	if host == "" {
		host = "localhost"
	}
	port := s.settings.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("mysql://%s:***@%s:%d/%s",
		s.settings.User, host, port, s.settings.Database)
}

// Initialize opens the engine and verifies it with a ping, retrying
// transient connectivity failures with exponential backoff. Exhausting the
// retry budget is fatal.
func (s *Strategy) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Strategy) initLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	dsn, err := s.ConnectionString()
	if err != nil {
		return err
	}

	err = s.initRetry.Do(ctx, func(ctx context.Context) error {
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return err
		}
		db.SetMaxOpenConns(poolMaxOpenConns)
		db.SetMaxIdleConns(poolMaxIdleConns)
		db.SetConnMaxLifetime(poolConnLifetime)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return err
		}
		s.db = db
		return nil
	}, plinth.Transient)
	if err != nil {
		return s.errs.Handle(err, plinth.KindDatabase, "initialize mysql engine", true)
	}

	s.logger.Info("mysql engine initialized", "dsn", s.redacted())
	return nil
}

// Session returns a dedicated connection with the utf8mb4 session setup
// applied, retrying transient failures once with a short backoff.
func (s *Strategy) Session(ctx context.Context) (plinth.Session, error) {
	db, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}

	var sess *session
	err = s.sessionRetry.Do(ctx, func(ctx context.Context) error {
		conn, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		for _, stmt := range sessionSetup {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				_ = conn.Close()
				return err
			}
		}
		sess = &session{conn: conn}
		return nil
	}, plinth.Transient)
	if err != nil {
		return nil, s.errs.Handle(err, plinth.KindDatabase, "open mysql session", false)
	}
	return sess, nil
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
		s.logger.Error("mysql connection validation failed", "err", err)
		return false
	}
	s.logger.Info("mysql connection validated")
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
		return s.errs.Handle(err, plinth.KindDatabase, "create mysql tables", true)
	}
	s.logger.Info("mysql schema verified")
	return nil
}

// Close closes the engine and all pooled connections.
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
