package plinth

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// MySQL server error numbers that indicate connectivity trouble rather
// than a bad statement.
const (
	mysqlErrTooManyConnections = 1040
	mysqlErrServerShutdown     = 1053
	mysqlErrLockWaitTimeout    = 1205
	mysqlErrCantConnect        = 2002
	mysqlErrCantConnectTCP     = 2003
	mysqlErrServerGone         = 2006
	mysqlErrLostConnection     = 2013
)

// Transient reports whether err looks like a connectivity failure that a
// bounded retry may recover from. Classified database errors carry their
// own transient flag; raw driver errors are inspected per backend.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindDatabase {
		return ce.Transient
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrTooManyConnections, mysqlErrServerShutdown, mysqlErrLockWaitTimeout,
			mysqlErrCantConnect, mysqlErrCantConnectTCP, mysqlErrServerGone, mysqlErrLostConnection:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions; 57P03 is cannot_connect_now
		// (server starting up); 53300 is too_many_connections.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P03" || pgErr.Code == "53300"
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
