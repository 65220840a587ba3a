/*
Package nativemock provides an in-memory stand-in for the native MySQL client
library.

It implements native.Driver without a server: statements are scripted by SQL
text, parameter buffers are decoded byte-for-byte according to their type tag
when a statement executes, and scripted rows are written into result buffers on
fetch exactly where a real driver would write them. Every call is recorded so
tests can assert on ordering and on calls that must not happen.

Quick start

	drv := nativemock.New(nativemock.Config{
	  ServerVersion: 80036,
	  Statements: map[string]nativemock.Script{
	    "SELECT id FROM t WHERE id = ?": {Rows: [][]any{{int64(7)}}},
	  },
	})

Behavior

  - SQL text without a Script prepares successfully and yields no rows.
  - The placeholder count of a statement is the number of '?' in its text.
  - A non-empty error string in Config or Script makes the matching call fail
    with that text as the native diagnostic.
  - Misuse a real driver would not survive (closing a NULL or unknown handle,
    initializing the library twice) is recorded in Violations.
*/
package nativemock

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unsafe"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// Function names used in recorded calls.
const (
	FnLibraryInit       = "LibraryInit"
	FnLibraryEnd        = "LibraryEnd"
	FnConnInit          = "ConnInit"
	FnConnConnect       = "ConnConnect"
	FnConnSetAutoCommit = "ConnSetAutoCommit"
	FnConnClose         = "ConnClose"
	FnStmtInit          = "StmtInit"
	FnStmtPrepare       = "StmtPrepare"
	FnStmtBindParam     = "StmtBindParam"
	FnStmtBindResult    = "StmtBindResult"
	FnStmtExecute       = "StmtExecute"
	FnStmtFetch         = "StmtFetch"
	FnStmtFreeResult    = "StmtFreeResult"
	FnStmtClose         = "StmtClose"
)

const firstHandle = native.Handle(0x1000)

// Config scripts the library and connection level behavior.
type Config struct {
	// InitStatus is returned by LibraryInit.
	InitStatus int

	// FailConnInit makes ConnInit return a NULL handle.
	FailConnInit bool

	// FailStmtInit makes StmtInit return a NULL handle.
	FailStmtInit bool

	// ConnectError makes ConnConnect fail with this diagnostic.
	ConnectError string

	// ServerVersion is reported once a connection is established.
	ServerVersion uint64

	// AutoCommitStatus is returned by ConnSetAutoCommit.
	AutoCommitStatus int

	// Statements scripts statement behavior keyed by SQL text.
	Statements map[string]Script
}

// Script describes how a prepared SQL text behaves.
type Script struct {
	PrepareError    string
	BindParamError  string
	BindResultError string
	ExecuteError    string
	FreeResultError string

	// FetchError makes the FetchErrorAt-th fetch (1-based, 0 means first)
	// after each execute fail with this diagnostic.
	FetchError   string
	FetchErrorAt int

	// CloseStatus is returned by StmtClose.
	CloseStatus int

	// Rows are produced in order by fetch. Values may be nil, any Go integer
	// or float, string, or []byte.
	Rows [][]any
}

// Call is one recorded driver call.
type Call struct {
	Fn     string
	Handle native.Handle
}

// Execution records a successful StmtExecute with its decoded parameters.
type Execution struct {
	SQL    string
	Params []any
}

type connection struct {
	connected  bool
	autoCommit bool
	err        string
}

type statement struct {
	conn         native.Handle
	sql          string
	script       Script
	prepared     bool
	paramCount   int
	params       []native.Bind
	results      []native.Bind
	paramsBound  bool
	resultsBound bool
	executed     bool
	cursor       int
	fetches      int
	err          string
}

// Driver implements native.Driver in memory. It is safe for concurrent use.
type Driver struct {
	cfg Config

	mu          sync.Mutex
	next        native.Handle
	conns       map[native.Handle]*connection
	stmts       map[native.Handle]*statement
	initialized bool
	calls       []Call
	executions  []Execution
	violations  []string
}

var _ native.Driver = (*Driver)(nil)

// New creates a Driver from the provided Config.
func New(cfg Config) *Driver {
	return &Driver{
		cfg:   cfg,
		next:  firstHandle,
		conns: make(map[native.Handle]*connection),
		stmts: make(map[native.Handle]*statement),
	}
}

// Calls returns a copy of every recorded call in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Count returns how many times fn was called.
func (d *Driver) Count(fn string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Fn == fn {
			n++
		}
	}
	return n
}

// Executions returns every successful execute with its decoded parameters.
func (d *Driver) Executions() []Execution {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Execution(nil), d.executions...)
}

// Violations returns misuse detected by the driver.
func (d *Driver) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// OpenHandles returns the number of connection and statement handles not yet
// closed.
func (d *Driver) OpenHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns) + len(d.stmts)
}

// Initialized reports whether the library is between init and end.
func (d *Driver) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Driver) record(fn string, h native.Handle) {
	d.calls = append(d.calls, Call{Fn: fn, Handle: h})
}

func (d *Driver) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *Driver) allocate() native.Handle {
	h := d.next
	d.next++
	return h
}

// LibraryInit implements native.Driver.
func (d *Driver) LibraryInit(_, _ []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnLibraryInit, 0)
	if d.initialized {
		d.violate("library initialized twice")
	}
	if d.cfg.InitStatus != 0 {
		return d.cfg.InitStatus
	}
	d.initialized = true
	return 0
}

// LibraryEnd implements native.Driver.
func (d *Driver) LibraryEnd() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnLibraryEnd, 0)
	if !d.initialized {
		d.violate("library ended without a successful init")
	}
	d.initialized = false
}

// ConnInit implements native.Driver.
func (d *Driver) ConnInit() native.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.FailConnInit {
		d.record(FnConnInit, 0)
		return 0
	}
	h := d.allocate()
	d.conns[h] = &connection{autoCommit: true}
	d.record(FnConnInit, h)
	return h
}

// ConnConnect implements native.Driver.
func (d *Driver) ConnConnect(h native.Handle, _, _, _, _ string, _ uint, _ string, _ uint64) native.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnConnConnect, h)
	c, ok := d.conns[h]
	if !ok {
		d.violate("connect on unknown connection handle %#x", h)
		return 0
	}
	if d.cfg.ConnectError != "" {
		c.err = d.cfg.ConnectError
		return 0
	}
	c.connected = true
	c.err = ""
	return h
}

// ConnError implements native.Driver.
func (d *Driver) ConnError(h native.Handle) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conns[h]; ok {
		return c.err
	}
	return ""
}

// ConnSetAutoCommit implements native.Driver.
func (d *Driver) ConnSetAutoCommit(h native.Handle, enabled bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnConnSetAutoCommit, h)
	c, ok := d.conns[h]
	if !ok || !c.connected {
		return 1
	}
	if d.cfg.AutoCommitStatus != 0 {
		return d.cfg.AutoCommitStatus
	}
	c.autoCommit = enabled
	return 0
}

// AutoCommit reports the auto-commit mode of a live connection handle.
func (d *Driver) AutoCommit(h native.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conns[h]; ok {
		return c.autoCommit
	}
	return false
}

// ConnServerVersion implements native.Driver.
func (d *Driver) ConnServerVersion(h native.Handle) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conns[h]; ok && c.connected {
		return d.cfg.ServerVersion
	}
	return 0
}

// ConnClose implements native.Driver.
func (d *Driver) ConnClose(h native.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnConnClose, h)
	if _, ok := d.conns[h]; !ok {
		d.violate("close on unknown connection handle %#x", h)
		return
	}
	delete(d.conns, h)
}

// StmtInit implements native.Driver.
func (d *Driver) StmtInit(conn native.Handle) native.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conns[conn]; !ok || d.cfg.FailStmtInit {
		d.record(FnStmtInit, 0)
		return 0
	}
	h := d.allocate()
	d.stmts[h] = &statement{conn: conn}
	d.record(FnStmtInit, h)
	return h
}

// StmtPrepare implements native.Driver.
func (d *Driver) StmtPrepare(h native.Handle, sql string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtPrepare, h)
	s, ok := d.stmts[h]
	if !ok {
		d.violate("prepare on unknown statement handle %#x", h)
		return 1
	}
	script := d.cfg.Statements[sql]
	*s = statement{conn: s.conn, sql: sql, script: script}
	if script.PrepareError != "" {
		s.err = script.PrepareError
		return 1
	}
	s.prepared = true
	s.paramCount = strings.Count(sql, "?")
	return 0
}

// StmtBindParam implements native.Driver.
func (d *Driver) StmtBindParam(h native.Handle, binds []native.Bind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtBindParam, h)
	s, ok := d.stmts[h]
	switch {
	case !ok:
		d.violate("bind on unknown statement handle %#x", h)
		return 1
	case !s.prepared:
		s.err = "Statement not prepared"
		return 1
	case len(binds) != s.paramCount:
		s.err = fmt.Sprintf("Incorrect parameter count: statement has %d, got %d", s.paramCount, len(binds))
		return 1
	case s.script.BindParamError != "":
		s.err = s.script.BindParamError
		return 1
	}
	s.params = append([]native.Bind(nil), binds...)
	s.paramsBound = true
	return 0
}

// StmtBindResult implements native.Driver.
func (d *Driver) StmtBindResult(h native.Handle, binds []native.Bind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtBindResult, h)
	s, ok := d.stmts[h]
	switch {
	case !ok:
		d.violate("bind on unknown statement handle %#x", h)
		return 1
	case !s.prepared:
		s.err = "Statement not prepared"
		return 1
	case s.script.BindResultError != "":
		s.err = s.script.BindResultError
		return 1
	}
	s.results = append([]native.Bind(nil), binds...)
	s.resultsBound = true
	return 0
}

// StmtExecute implements native.Driver.
func (d *Driver) StmtExecute(h native.Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtExecute, h)
	s, ok := d.stmts[h]
	switch {
	case !ok:
		d.violate("execute on unknown statement handle %#x", h)
		return 1
	case !s.prepared:
		s.err = "Statement not prepared"
		return 1
	case s.paramCount > 0 && !s.paramsBound:
		s.err = "No data supplied for parameters in prepared statement"
		return 1
	case s.script.ExecuteError != "":
		s.err = s.script.ExecuteError
		return 1
	}

	params := make([]any, len(s.params))
	for i, b := range s.params {
		params[i] = readValue(b)
	}
	d.executions = append(d.executions, Execution{SQL: s.sql, Params: params})

	s.executed = true
	s.cursor = 0
	s.fetches = 0
	s.err = ""
	return 0
}

// StmtFetch implements native.Driver.
func (d *Driver) StmtFetch(h native.Handle) native.FetchStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtFetch, h)
	s, ok := d.stmts[h]
	if !ok {
		d.violate("fetch on unknown statement handle %#x", h)
		return native.FetchError
	}
	if !s.executed {
		s.err = "Attempt to read a row while there is no result set associated with the statement"
		return native.FetchError
	}

	s.fetches++
	if s.script.FetchError != "" && s.fetches == max(s.script.FetchErrorAt, 1) {
		s.err = s.script.FetchError
		return native.FetchError
	}
	if s.cursor >= len(s.script.Rows) {
		return native.FetchNoData
	}

	row := s.script.Rows[s.cursor]
	s.cursor++
	for i := 0; i < len(row) && i < len(s.results); i++ {
		truncated, err := writeValue(s.results[i], row[i])
		if err != nil {
			s.err = err.Error()
			return native.FetchError
		}
		if truncated {
			s.err = "Data truncated"
			return native.FetchError
		}
	}
	return native.FetchOK
}

// StmtFreeResult implements native.Driver.
func (d *Driver) StmtFreeResult(h native.Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtFreeResult, h)
	s, ok := d.stmts[h]
	if !ok {
		d.violate("free result on unknown statement handle %#x", h)
		return 1
	}
	if s.script.FreeResultError != "" {
		s.err = s.script.FreeResultError
		return 1
	}
	s.executed = false
	s.cursor = 0
	return 0
}

// StmtClose implements native.Driver.
func (d *Driver) StmtClose(h native.Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(FnStmtClose, h)
	s, ok := d.stmts[h]
	if !ok {
		d.violate("close on unknown statement handle %#x", h)
		return 1
	}
	delete(d.stmts, h)
	return s.script.CloseStatus
}

// StmtError implements native.Driver.
func (d *Driver) StmtError(h native.Handle) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.stmts[h]; ok {
		return s.err
	}
	return ""
}

// readValue decodes a parameter buffer the way the server would see it,
// honoring only the type tag and never the Go type behind the pointer.
func readValue(b native.Bind) any {
	if b.IsNull != nil && *b.IsNull {
		return nil
	}
	if b.Buffer == nil {
		return nil
	}
	switch b.Type {
	case native.TypeTiny:
		return *(*int8)(b.Buffer)
	case native.TypeShort:
		return *(*int16)(b.Buffer)
	case native.TypeLong:
		return *(*int32)(b.Buffer)
	case native.TypeLongLong:
		return *(*int64)(b.Buffer)
	case native.TypeFloat:
		return *(*float32)(b.Buffer)
	case native.TypeDouble:
		return *(*float64)(b.Buffer)
	case native.TypeString, native.TypeVarString, native.TypeVarchar,
		native.TypeDecimal, native.TypeNewDecimal, native.TypeJSON:
		return string(readBytes(b))
	default:
		return readBytes(b)
	}
}

func readBytes(b native.Bind) []byte {
	n := b.BufferLength
	if b.Length != nil {
		n = *b.Length
	}
	if n == 0 {
		return []byte{}
	}
	return append([]byte(nil), unsafe.Slice((*byte)(b.Buffer), n)...)
}

// writeValue stores v into a result buffer according to the buffer's type tag.
func writeValue(b native.Bind, v any) (bool, error) {
	if b.IsNull != nil {
		*b.IsNull = v == nil
	}
	if v == nil {
		if b.Length != nil {
			*b.Length = 0
		}
		return false, nil
	}
	if b.Buffer == nil {
		return false, fmt.Errorf("nil buffer for %s column", b.Type)
	}

	var size uint64
	switch b.Type {
	case native.TypeTiny, native.TypeShort, native.TypeLong, native.TypeLongLong:
		n, ok := toInt64(v)
		if !ok {
			return false, fmt.Errorf("cannot convert %T to %s", v, b.Type)
		}
		switch b.Type {
		case native.TypeTiny:
			*(*int8)(b.Buffer), size = int8(n), 1
		case native.TypeShort:
			*(*int16)(b.Buffer), size = int16(n), 2
		case native.TypeLong:
			*(*int32)(b.Buffer), size = int32(n), 4
		default:
			*(*int64)(b.Buffer), size = n, 8
		}
	case native.TypeFloat, native.TypeDouble:
		f, ok := toFloat64(v)
		if !ok {
			return false, fmt.Errorf("cannot convert %T to %s", v, b.Type)
		}
		if b.Type == native.TypeFloat {
			*(*float32)(b.Buffer), size = float32(f), 4
		} else {
			*(*float64)(b.Buffer), size = f, 8
		}
	default:
		data := toBytes(v)
		size = uint64(len(data))
		copy(unsafe.Slice((*byte)(b.Buffer), b.BufferLength), data)
		if b.Length != nil {
			*b.Length = size
		}
		return size > b.BufferLength, nil
	}
	if b.Length != nil {
		*b.Length = size
	}
	return false, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

func toBytes(v any) []byte {
	switch s := v.(type) {
	case []byte:
		return s
	case string:
		return []byte(s)
	default:
		return []byte(fmt.Sprint(v))
	}
}
