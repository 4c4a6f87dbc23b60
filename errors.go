package plinth

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Kind classifies an error into one of the failure categories the service
// distinguishes when deciding whether to retry, recover, or abort.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration covers missing or invalid settings.
	KindConfiguration
	// KindFileIO covers path and directory problems (SQLite file setup).
	KindFileIO
	// KindDatabase covers connection and query failures. A database error
	// may additionally be transient (retryable) or fatal.
	KindDatabase
	// KindUnsupportedBackend is raised when the factory is asked for a
	// backend name outside the registry.
	KindUnsupportedBackend
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindFileIO:
		return "file_io"
	case KindDatabase:
		return "database"
	case KindUnsupportedBackend:
		return "unsupported_backend"
	default:
		return "unknown"
	}
}

// Error is a classified error. Op names the operation that failed, Fatal
// marks errors the process must not continue past, and Transient marks
// database errors a bounded retry may recover from.
type Error struct {
	Kind      Kind
	Op        string
	Fatal     bool
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError reports missing or invalid settings for op.
func ConfigError(op string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// FileIOError reports a path or directory problem for op. File I/O errors
// are recoverable: callers fall back to a default path instead of aborting.
func FileIOError(op string, err error) *Error {
	return &Error{Kind: KindFileIO, Op: op, Err: err}
}

// DatabaseError reports a connection or query failure for op, with the
// transient flag derived from the underlying cause.
func DatabaseError(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Op: op, Transient: Transient(err), Err: err}
}

// FatalDatabaseError reports a database failure the process cannot
// continue past, such as exhausted connection retries or a failed
// liveness check at startup.
func FatalDatabaseError(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Op: op, Fatal: true, Err: err}
}

// UnsupportedBackendError reports an unknown backend name, listing the
// registered names so the caller can correct the selector.
func UnsupportedBackendError(name string, available []string) *Error {
	sorted := append([]string(nil), available...)
	sort.Strings(sorted)
	return &Error{
		Kind: KindUnsupportedBackend,
		Op:   "select backend",
		Err:  fmt.Errorf("unsupported database backend %q (available: %s)", name, strings.Join(sorted, ", ")),
	}
}

// IsKind reports whether err or anything it wraps is a classified error of
// kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

// IsFatal reports whether err carries the fatal flag.
func IsFatal(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Fatal
}

// ErrorHandler centralizes the logging format for classified errors.
// Handle logs err with its operation context and returns the classified
// wrapper for the caller to propagate. Fatal errors are logged at error
// level and must not be swallowed by the caller.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler returns a handler logging through logger, or the default
// logger when nil.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger}
}

// Handle classifies err under kind for op and logs it. When fatal is set
// the returned error carries the fatal flag and the caller must propagate
// it; otherwise the caller may recover.
func (h *ErrorHandler) Handle(err error, kind Kind, op string, fatal bool) *Error {
	e := &Error{Kind: kind, Op: op, Fatal: fatal, Err: err}
	if kind == KindDatabase {
		e.Transient = Transient(err)
	}
	attrs := []any{"kind", kind.String(), "op", op, "err", err}
	switch {
	case fatal:
		h.logger.Error("fatal error", attrs...)
	case e.Transient:
		h.logger.Warn("transient error", attrs...)
	default:
		h.logger.Error("error", attrs...)
	}
	return e
}
