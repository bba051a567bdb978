package databases

import (
	"errors"
	"fmt"
)

// ErrNoResultRow is returned when an aggregate query that must produce
// exactly one row produced none. It signals a broken invariant in the engine
// or driver, not a user error.
var ErrNoResultRow = errors.New("aggregate query returned no rows")

// ConnectionError reports a failure to open a session: an unsupported or
// malformed URL, rejected credentials or an unreachable server.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError reports an engine-side failure while running metadata,
// preview or statistics SQL.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
