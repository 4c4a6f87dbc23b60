package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crobledo/plinth"
	"github.com/crobledo/plinth/database"
	"github.com/crobledo/plinth/database/sqlite"
)

func sqliteSettings(t *testing.T) plinth.Settings {
	t.Helper()
	return plinth.Settings{
		Backend: "sqlite",
		SQLite:  plinth.SQLiteSettings{Path: filepath.Join(t.TempDir(), "test.db")},
	}
}

func TestBackends(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"mysql", "postgresql", "sqlite"}, database.Backends())
}

func TestCreateStrategy_UnknownBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := database.CreateStrategy(ctx, plinth.Settings{Backend: "mongodb"}, nil)
	require.Error(t, err)
	assert.True(t, plinth.IsKind(err, plinth.KindUnsupportedBackend))
	assert.Contains(t, err.Error(), "mysql, postgresql, sqlite")
}

func TestCreateStrategy_EmptyBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := database.CreateStrategy(ctx, plinth.Settings{}, nil)
	require.Error(t, err)
	assert.True(t, plinth.IsKind(err, plinth.KindUnsupportedBackend))
}

func TestCreateStrategy_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	strategy, err := database.CreateStrategy(ctx, sqliteSettings(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = strategy.Close() })

	assert.Equal(t, "sqlite", strategy.Backend())

	// A returned strategy has always passed its liveness check.
	concrete, ok := strategy.(*sqlite.Strategy)
	require.True(t, ok)
	assert.True(t, concrete.Validated())

	// Schema exists and is usable.
	err = database.WithSession(ctx, strategy, func(sess plinth.Session) error {
		return sess.Exec(ctx, `INSERT INTO app_metadata ("key", value) VALUES ('boot', 'ok')`)
	})
	assert.NoError(t, err)
}

func TestCreateStrategy_MySQLMissingDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	settings := plinth.Settings{
		Backend: "mysql",
		MySQL:   plinth.MySQLSettings{User: "root"},
	}

	// Fails while building the connection string, before any dial.
	_, err := database.CreateStrategy(ctx, settings, nil)
	require.Error(t, err)
	assert.True(t, plinth.IsKind(err, plinth.KindConfiguration))
	assert.Contains(t, err.Error(), "database not specified")
}

func TestCreateStrategy_PostgresMissingUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	settings := plinth.Settings{
		Backend:  "postgresql",
		Postgres: plinth.PostgresSettings{Host: "localhost", Database: "app"},
	}

	_, err := database.CreateStrategy(ctx, settings, nil)
	require.Error(t, err)
	assert.True(t, plinth.IsKind(err, plinth.KindConfiguration))
}

// fakeSession records releases so leak behavior is observable.
type fakeSession struct {
	closed   int
	queryErr error
}

func (f *fakeSession) Exec(ctx context.Context, query string, args ...any) error { return nil }

func (f *fakeSession) QueryRow(ctx context.Context, query string, dest ...any) error {
	return f.queryErr
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type fakeStrategy struct {
	sess       *fakeSession
	sessionErr error
}

func (f *fakeStrategy) Backend() string                    { return "fake" }
func (f *fakeStrategy) ConnectionString() (string, error)  { return "fake://", nil }
func (f *fakeStrategy) Initialize(context.Context) error   { return nil }
func (f *fakeStrategy) CreateTables(context.Context) error { return nil }
func (f *fakeStrategy) Close() error                       { return nil }

func (f *fakeStrategy) Session(context.Context) (plinth.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.sess, nil
}

func (f *fakeStrategy) ValidateConnection(context.Context) bool { return true }

func TestWithSession_ClosesOnSuccess(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	strategy := &fakeStrategy{sess: sess}

	err := database.WithSession(context.Background(), strategy, func(s plinth.Session) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, sess.closed)
}

func TestWithSession_ClosesOnError(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	strategy := &fakeStrategy{sess: sess}
	unitErr := errors.New("unit of work failed")

	err := database.WithSession(context.Background(), strategy, func(s plinth.Session) error {
		return unitErr
	})

	assert.ErrorIs(t, err, unitErr)
	assert.Equal(t, 1, sess.closed)
}

func TestWithSession_ClosesOnPanic(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	strategy := &fakeStrategy{sess: sess}

	assert.Panics(t, func() {
		_ = database.WithSession(context.Background(), strategy, func(s plinth.Session) error {
			panic("unit of work exploded")
		})
	})
	assert.Equal(t, 1, sess.closed)
}

func TestWithSession_PropagatesSessionError(t *testing.T) {
	t.Parallel()

	sessionErr := errors.New("pool exhausted")
	strategy := &fakeStrategy{sessionErr: sessionErr}

	err := database.WithSession(context.Background(), strategy, func(s plinth.Session) error {
		t.Fatal("fn must not run without a session")
		return nil
	})

	assert.ErrorIs(t, err, sessionErr)
}
