package mysqlclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization is returned when the native client library fails to
	// initialize. Nothing downstream can be used after it.
	ErrInitialization = errors.New("failed to initialize MySQL client library")

	// ErrAllocation is returned when the driver cannot allocate a native handle.
	ErrAllocation = errors.New("failed to allocate native handle")

	// ErrConnection is returned when the handshake with the server fails. The
	// caller may retry with a new Connection.
	ErrConnection = errors.New("could not connect to database server")

	// ErrConfiguration is returned when the server rejects a session setting.
	ErrConfiguration = errors.New("could not configure connection")

	// ErrPrepare is returned when the driver cannot compile the SQL text.
	ErrPrepare = errors.New("failed to prepare prepared statement")

	// ErrBind is returned when the driver rejects a descriptor array.
	ErrBind = errors.New("failed to bind prepared statement")

	// ErrLogic marks misuse of the API, detected before any native call.
	ErrLogic = errors.New("logic error")

	// ErrIndex is returned for an out-of-range descriptor position.
	ErrIndex = errors.New("descriptor index out of range")

	// ErrExecution is returned when the statement fails to execute.
	ErrExecution = errors.New("failed to execute prepared statement")

	// ErrFetch is returned when row retrieval fails.
	ErrFetch = errors.New("failed to fetch data")

	// ErrStop is returned when the driver fails to release buffered results.
	ErrStop = errors.New("failed to stop prepared statement")

	// ErrClosed is returned when a closed Connection or PreparedStatement is used.
	ErrClosed = fmt.Errorf("%w: use of closed handle", ErrLogic)
)

// Misuse detected before the driver is called. All of them match ErrLogic.
var (
	ErrNoParameters    = fmt.Errorf("%w: there are no parameters", ErrLogic)
	ErrNoResults       = fmt.Errorf("%w: there are no results", ErrLogic)
	ErrNotPrepared     = fmt.Errorf("%w: statement is not prepared", ErrLogic)
	ErrNotExecuted     = fmt.Errorf("%w: statement has not been executed", ErrLogic)
	ErrNotConnected    = fmt.Errorf("%w: connection is not established", ErrLogic)
	ErrReleased        = fmt.Errorf("%w: library has been released", ErrLogic)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported binding type", ErrLogic)
)

// nativeError attaches the driver's diagnostic text to a sentinel.
func nativeError(kind error, diagnostic string) error {
	if diagnostic == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, diagnostic)
}
