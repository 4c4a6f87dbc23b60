package plinth_test

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crobledo/plinth"
)

func TestUnsupportedBackendError_ListsRegisteredNames(t *testing.T) {
	t.Parallel()

	err := plinth.UnsupportedBackendError("mongodb", []string{"postgresql", "sqlite", "mysql"})

	assert.True(t, plinth.IsKind(err, plinth.KindUnsupportedBackend))
	assert.Contains(t, err.Error(), `"mongodb"`)
	assert.Contains(t, err.Error(), "mysql, postgresql, sqlite")
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	assert.True(t, plinth.IsKind(plinth.ConfigError("load settings", cause), plinth.KindConfiguration))
	assert.True(t, plinth.IsKind(plinth.FileIOError("create dir", cause), plinth.KindFileIO))
	assert.True(t, plinth.IsKind(plinth.DatabaseError("ping", cause), plinth.KindDatabase))
	assert.False(t, plinth.IsKind(plinth.ConfigError("load settings", cause), plinth.KindDatabase))
	assert.False(t, plinth.IsKind(cause, plinth.KindDatabase))
}

func TestError_UnwrapsToCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such host")
	err := plinth.DatabaseError("dial", cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("connect: %w", err)
	var ce *plinth.Error
	require.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "dial", ce.Op)
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	cause := errors.New("retries exhausted")

	assert.True(t, plinth.IsFatal(plinth.FatalDatabaseError("initialize engine", cause)))
	assert.False(t, plinth.IsFatal(plinth.DatabaseError("open session", cause)))
	assert.False(t, plinth.IsFatal(cause))
}

func TestTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"reset", syscall.ECONNRESET, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"mysql server gone", &mysql.MySQLError{Number: 2006, Message: "server has gone away"}, true},
		{"mysql cant connect", &mysql.MySQLError{Number: 2002, Message: "can't connect"}, true},
		{"mysql syntax error", &mysql.MySQLError{Number: 1064, Message: "syntax error"}, false},
		{"mysql invalid conn", mysql.ErrInvalidConn, true},
		{"pg cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, plinth.Transient(tt.err))
		})
	}
}

func TestTransient_RespectsClassifiedFlag(t *testing.T) {
	t.Parallel()

	transient := plinth.DatabaseError("ping", syscall.ECONNREFUSED)
	assert.True(t, plinth.Transient(transient))

	// Classified as database but with a non-connectivity cause.
	permanent := plinth.DatabaseError("query", errors.New("relation does not exist"))
	assert.False(t, plinth.Transient(permanent))
}
