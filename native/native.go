// Package native describes the fixed low-level interface of a MySQL-compatible
// client library (libmysqlclient or libmariadb).
//
// Every method mirrors one C API primitive: status-returning calls return 0 on
// success, handle-returning calls return 0 in place of a NULL pointer. The
// interface says nothing about how the driver is reached; package cmysql
// implements it through cgo and package nativemock implements it in memory.
package native

import (
	"fmt"
	"unsafe"
)

// Handle is an opaque reference to a native connection or statement object.
// The zero Handle stands for a NULL pointer.
type Handle uintptr

// FieldType is the buffer type tag of a binding descriptor. Values equal the
// C enum_field_types constants.
type FieldType int32

const (
	TypeDecimal    FieldType = 0
	TypeTiny       FieldType = 1
	TypeShort      FieldType = 2
	TypeLong       FieldType = 3
	TypeFloat      FieldType = 4
	TypeDouble     FieldType = 5
	TypeNull       FieldType = 6
	TypeTimestamp  FieldType = 7
	TypeLongLong   FieldType = 8
	TypeDate       FieldType = 10
	TypeTime       FieldType = 11
	TypeDateTime   FieldType = 12
	TypeVarchar    FieldType = 15
	TypeJSON       FieldType = 245
	TypeNewDecimal FieldType = 246
	TypeBlob       FieldType = 252
	TypeVarString  FieldType = 253
	TypeString     FieldType = 254
)

var fieldTypeNames = map[FieldType]string{
	TypeDecimal:    "DECIMAL",
	TypeTiny:       "TINY",
	TypeShort:      "SHORT",
	TypeLong:       "LONG",
	TypeFloat:      "FLOAT",
	TypeDouble:     "DOUBLE",
	TypeNull:       "NULL",
	TypeTimestamp:  "TIMESTAMP",
	TypeLongLong:   "LONGLONG",
	TypeDate:       "DATE",
	TypeTime:       "TIME",
	TypeDateTime:   "DATETIME",
	TypeVarchar:    "VARCHAR",
	TypeJSON:       "JSON",
	TypeNewDecimal: "NEWDECIMAL",
	TypeBlob:       "BLOB",
	TypeVarString:  "VAR_STRING",
	TypeString:     "STRING",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int32(t))
}

// Bind is a binding descriptor: it maps a caller-owned memory region to a
// placeholder (parameter) or a selected column (result).
//
// Buffer must stay valid for as long as the driver may read or write it, which
// is from the bind call through every execute and fetch until the result set
// is freed or the statement is closed.
type Bind struct {
	Type         FieldType
	Buffer       unsafe.Pointer
	BufferLength uint64

	// Length receives the full column length on fetch. For parameters a nil
	// Length makes the driver use BufferLength.
	Length *uint64

	// IsNull receives the NULL indicator on fetch. For parameters a non-nil
	// IsNull pointing at true sends SQL NULL.
	IsNull *bool
}

// FetchStatus is the outcome of StmtFetch.
type FetchStatus int

const (
	FetchOK FetchStatus = iota
	FetchNoData
	FetchError
)

func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "OK"
	case FetchNoData:
		return "NO_DATA"
	default:
		return "ERROR"
	}
}

// Driver is the native client library ABI.
type Driver interface {
	LibraryInit(args, groups []string) int
	LibraryEnd()

	ConnInit() Handle
	ConnConnect(conn Handle, host, user, password, database string, port uint, socket string, flags uint64) Handle
	ConnError(conn Handle) string
	ConnSetAutoCommit(conn Handle, enabled bool) int
	ConnServerVersion(conn Handle) uint64
	ConnClose(conn Handle)

	StmtInit(conn Handle) Handle
	StmtPrepare(stmt Handle, sql string) int
	StmtBindParam(stmt Handle, binds []Bind) int
	StmtBindResult(stmt Handle, binds []Bind) int
	StmtExecute(stmt Handle) int
	StmtFetch(stmt Handle) FetchStatus
	StmtFreeResult(stmt Handle) int
	StmtClose(stmt Handle) int
	StmtError(stmt Handle) string
}
