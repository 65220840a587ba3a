package mysqlclient

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// statusNoData is the native status recorded when fetch reaches the end of
// the result set.
const statusNoData = 100

// State is the position of a PreparedStatement in its lifecycle.
type State int

const (
	StateCreated State = iota
	StatePrepared
	StateParametersBound
	StateResultsBound
	StateExecuted
	StateRowAvailable
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StatePrepared:
		return "Prepared"
	case StateParametersBound:
		return "ParametersBound"
	case StateResultsBound:
		return "ResultsBound"
	case StateExecuted:
		return "Executed"
	case StateRowAvailable:
		return "RowAvailable"
	case StateExhausted:
		return "Exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PreparedStatement represents a prepared statement on a Connection, which can
// be executed repeatedly with bound parameters and result buffers.
// PreparedStatement is returned by NewPreparedStatement.
//
// Binding does not copy: every buffer handed to an Add method is read or
// written in place by the driver from the bind call through every Execute and
// Fetch until Stop, the next Prepare, or Close. The caller must keep those
// buffers alive and must not reslice them into new backing arrays in between.
//
// A PreparedStatement is not safe for concurrent use.
type PreparedStatement struct {
	id                 uuid.UUID
	cPreparedStatement native.Handle
	connection         *Connection
	logger             *zap.Logger
	parameters         []native.Bind
	results            []native.Bind
	errorCode          int
	state              State
	parametersBound    bool
	resultsBound       bool
	isClosed           bool
}

// NewPreparedStatement allocates a native statement handle on a connected
// Connection. The statement keeps the Connection alive until it is closed.
func NewPreparedStatement(conn *Connection) (*PreparedStatement, error) {
	if conn.isClosed {
		return nil, ErrClosed
	}
	if !conn.connected {
		return nil, ErrNotConnected
	}

	handle := conn.library.driver.StmtInit(conn.cConn)
	if handle == 0 {
		return nil, nativeError(ErrAllocation, "failed to initialize MySQL prepared statement object")
	}
	conn.retain()

	id := uuid.New()
	return &PreparedStatement{
		id:                 id,
		cPreparedStatement: handle,
		connection:         conn,
		logger:             conn.logger.With(zap.Stringer("statement", id)),
	}, nil
}

func (stmt *PreparedStatement) driver() native.Driver {
	return stmt.connection.library.driver
}

func (stmt *PreparedStatement) diagnostic() string {
	return stmt.driver().StmtError(stmt.cPreparedStatement)
}

// Prepare compiles sql on the server. Preparing again is allowed and starts
// over: previously added parameters and results are discarded.
func (stmt *PreparedStatement) Prepare(sql string) error {
	if stmt.isClosed {
		return ErrClosed
	}

	stmt.parameters = nil
	stmt.results = nil
	stmt.parametersBound = false
	stmt.resultsBound = false
	stmt.state = StateCreated

	stmt.errorCode = stmt.driver().StmtPrepare(stmt.cPreparedStatement, sql)
	if stmt.errorCode != 0 {
		return nativeError(ErrPrepare, stmt.diagnostic())
	}
	stmt.state = StatePrepared
	stmt.logger.Debug("statement prepared", zap.String("sql", sql))
	return nil
}

// AddParameter appends a descriptor for the next placeholder. value must be
// a pointer to int8, int16, int32, int64, int, float32 or float64, a *uuid.UUID,
// a []byte (bound as BLOB) or a string (bound as STRING).
func (stmt *PreparedStatement) AddParameter(value any) error {
	if s, ok := value.(string); ok {
		stmt.parameters = append(stmt.parameters, native.Bind{
			Type:         native.TypeString,
			Buffer:       unsafe.Pointer(unsafe.StringData(s)),
			BufferLength: uint64(len(s)),
		})
		return nil
	}
	b, err := describe(value)
	if err != nil {
		return err
	}
	stmt.parameters = append(stmt.parameters, b)
	return nil
}

// AddTextParameter appends a STRING descriptor over buf.
func (stmt *PreparedStatement) AddTextParameter(buf []byte) {
	stmt.parameters = append(stmt.parameters, bytesBind(native.TypeString, buf))
}

// AddTypedParameter appends a raw descriptor. The caller is responsible for
// the tag matching the memory behind buffer.
func (stmt *PreparedStatement) AddTypedParameter(t native.FieldType, buffer unsafe.Pointer, length uint64) {
	stmt.parameters = append(stmt.parameters, native.Bind{Type: t, Buffer: buffer, BufferLength: length})
}

// SetParameterLength changes the buffer length of the parameter at index,
// for blobs whose size is only known after the slot was declared. It takes
// effect at the next BindParameters.
func (stmt *PreparedStatement) SetParameterLength(index int, length uint64) error {
	if index < 0 || index >= len(stmt.parameters) {
		return fmt.Errorf("%w: parameter %d of %d", ErrIndex, index, len(stmt.parameters))
	}
	stmt.parameters[index].BufferLength = length
	return nil
}

// BindParameters submits all parameter descriptors to the driver.
func (stmt *PreparedStatement) BindParameters() error {
	if err := stmt.checkPrepared(); err != nil {
		return err
	}
	if len(stmt.parameters) == 0 {
		return ErrNoParameters
	}

	stmt.errorCode = stmt.driver().StmtBindParam(stmt.cPreparedStatement, stmt.parameters)
	if stmt.errorCode != 0 {
		return nativeError(ErrBind, "parameters: "+stmt.diagnostic())
	}
	stmt.parametersBound = true
	if stmt.state == StatePrepared {
		stmt.state = StateParametersBound
	}
	return nil
}

// AddResult appends a descriptor for the next selected column. value accepts
// the same types as AddParameter except string, which is immutable.
func (stmt *PreparedStatement) AddResult(value any) error {
	b, err := describe(value)
	if err != nil {
		return err
	}
	stmt.appendResult(b)
	return nil
}

// AddTextResult appends a STRING descriptor over buf.
func (stmt *PreparedStatement) AddTextResult(buf []byte) {
	stmt.appendResult(bytesBind(native.TypeString, buf))
}

// AddTypedResult appends a raw result descriptor.
func (stmt *PreparedStatement) AddTypedResult(t native.FieldType, buffer unsafe.Pointer, length uint64) {
	stmt.appendResult(native.Bind{Type: t, Buffer: buffer, BufferLength: length})
}

func (stmt *PreparedStatement) appendResult(b native.Bind) {
	b.Length = new(uint64)
	b.IsNull = new(bool)
	stmt.results = append(stmt.results, b)
}

// BindResults submits all result descriptors to the driver.
func (stmt *PreparedStatement) BindResults() error {
	if err := stmt.checkPrepared(); err != nil {
		return err
	}
	if len(stmt.results) == 0 {
		return ErrNoResults
	}

	stmt.errorCode = stmt.driver().StmtBindResult(stmt.cPreparedStatement, stmt.results)
	if stmt.errorCode != 0 {
		return nativeError(ErrBind, "results: "+stmt.diagnostic())
	}
	stmt.resultsBound = true
	if stmt.state == StatePrepared || stmt.state == StateParametersBound {
		stmt.state = StateResultsBound
	}
	return nil
}

// Execute runs the statement with the bound parameters.
func (stmt *PreparedStatement) Execute() error {
	if err := stmt.checkPrepared(); err != nil {
		return err
	}

	stmt.errorCode = stmt.driver().StmtExecute(stmt.cPreparedStatement)
	if stmt.errorCode != 0 {
		return nativeError(ErrExecution, stmt.diagnostic())
	}
	stmt.state = StateExecuted
	return nil
}

// Fetch advances to the next row, writing it into the bound result buffers.
// It returns true when a row is available and false once the rows are
// exhausted; further calls keep returning false without touching the driver.
func (stmt *PreparedStatement) Fetch() (bool, error) {
	if stmt.isClosed {
		return false, ErrClosed
	}
	switch stmt.state {
	case StateExhausted:
		return false, nil
	case StateExecuted, StateRowAvailable:
	default:
		return false, ErrNotExecuted
	}

	switch stmt.driver().StmtFetch(stmt.cPreparedStatement) {
	case native.FetchOK:
		stmt.errorCode = 0
		stmt.state = StateRowAvailable
		return true, nil
	case native.FetchNoData:
		stmt.errorCode = statusNoData
		stmt.state = StateExhausted
		return false, nil
	default:
		stmt.errorCode = 1
		return false, nativeError(ErrFetch, stmt.diagnostic())
	}
}

// Stop releases the result set buffered by the driver. It must be called
// before executing again a statement that produced rows.
func (stmt *PreparedStatement) Stop() error {
	if err := stmt.checkPrepared(); err != nil {
		return err
	}

	stmt.errorCode = stmt.driver().StmtFreeResult(stmt.cPreparedStatement)
	if stmt.errorCode != 0 {
		return nativeError(ErrStop, stmt.diagnostic())
	}
	switch {
	case stmt.resultsBound:
		stmt.state = StateResultsBound
	case stmt.parametersBound:
		stmt.state = StateParametersBound
	default:
		stmt.state = StatePrepared
	}
	return nil
}

func (stmt *PreparedStatement) checkPrepared() error {
	if stmt.isClosed {
		return ErrClosed
	}
	if stmt.state == StateCreated {
		return ErrNotPrepared
	}
	return nil
}

// ResultLength returns the full length of the column at index in the current
// row. For text and blob columns it can exceed the buffer length.
func (stmt *PreparedStatement) ResultLength(index int) (uint64, error) {
	if index < 0 || index >= len(stmt.results) {
		return 0, fmt.Errorf("%w: result %d of %d", ErrIndex, index, len(stmt.results))
	}
	return *stmt.results[index].Length, nil
}

// ResultIsNull reports whether the column at index is NULL in the current row.
func (stmt *PreparedStatement) ResultIsNull(index int) (bool, error) {
	if index < 0 || index >= len(stmt.results) {
		return false, fmt.Errorf("%w: result %d of %d", ErrIndex, index, len(stmt.results))
	}
	return *stmt.results[index].IsNull, nil
}

// Parameters returns a copy of the parameter descriptors in placeholder order.
func (stmt *PreparedStatement) Parameters() []native.Bind {
	return append([]native.Bind(nil), stmt.parameters...)
}

// Results returns a copy of the result descriptors in column order.
func (stmt *PreparedStatement) Results() []native.Bind {
	return append([]native.Bind(nil), stmt.results...)
}

// ErrorCode returns the status of the last native call.
func (stmt *PreparedStatement) ErrorCode() int { return stmt.errorCode }

// State returns the lifecycle position of the statement.
func (stmt *PreparedStatement) State() State { return stmt.state }

// ID identifies the statement in log output.
func (stmt *PreparedStatement) ID() uuid.UUID { return stmt.id }

// Connection returns the Connection the statement was created on.
func (stmt *PreparedStatement) Connection() *Connection { return stmt.connection }

// Close releases the underlying native statement and its reference on the
// Connection. MUST be called when done to prevent resource leaks.
func (stmt *PreparedStatement) Close() {
	if stmt.isClosed {
		return
	}
	stmt.isClosed = true
	if stmt.cPreparedStatement != 0 {
		if status := stmt.driver().StmtClose(stmt.cPreparedStatement); status != 0 {
			stmt.logger.Warn("statement close failed", zap.Int("status", status))
		}
		stmt.cPreparedStatement = 0
	}
	stmt.parameters = nil
	stmt.results = nil
	stmt.connection.release()
}
