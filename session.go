package plinth

import "context"

// Session is a short-lived transactional handle bound to a backend engine.
// A session serves exactly one unit of work and is never shared across
// concurrent callers; failing to Close a session leaks a pooled connection.
type Session interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error
	// QueryRow runs query and scans the first result row into dest.
	QueryRow(ctx context.Context, query string, dest ...any) error
	// Close releases the session back to its engine. Close is safe to
	// call exactly once and must always be called.
	Close() error
}

// Liveness runs a trivial query on sess to confirm the engine behind it is
// reachable.
func Liveness(ctx context.Context, sess Session) error {
	var one int
	return sess.QueryRow(ctx, "SELECT 1", &one)
}
