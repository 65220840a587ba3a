//go:build cgo && mysqlclient && (linux || darwin) && (amd64 || arm64)

package cmysql

/*
#cgo pkg-config: mysqlclient
#include <stdlib.h>
#include <string.h>
#include <mysql.h>

#if defined(MARIADB_BASE_VERSION) || MYSQL_VERSION_ID < 80000
typedef my_bool gomysql_bool;
#else
typedef bool gomysql_bool;
#endif

// mysql_library_init and mysql_library_end are macros.
static int gomysql_library_init(int argc, char** argv, char** groups) {
	return mysql_library_init(argc, argv, groups);
}

static void gomysql_library_end(void) {
	mysql_library_end();
}

static MYSQL_BIND* gomysql_alloc_binds(size_t n) {
	return (MYSQL_BIND*)calloc(n, sizeof(MYSQL_BIND));
}

static void gomysql_set_bind(MYSQL_BIND* binds, size_t i, int type, void* buffer,
		unsigned long buffer_length, unsigned long* length, void* is_null) {
	binds[i].buffer_type = (enum enum_field_types)type;
	binds[i].buffer = buffer;
	binds[i].buffer_length = buffer_length;
	binds[i].length = length;
	binds[i].is_null = (gomysql_bool*)is_null;
}

// The bool-returning calls differ between my_bool and bool across versions.
static int gomysql_autocommit(MYSQL* m, int mode) {
	return mysql_autocommit(m, mode) ? 1 : 0;
}

static int gomysql_stmt_bind_param(MYSQL_STMT* s, MYSQL_BIND* b) {
	return mysql_stmt_bind_param(s, b) ? 1 : 0;
}

static int gomysql_stmt_bind_result(MYSQL_STMT* s, MYSQL_BIND* b) {
	return mysql_stmt_bind_result(s, b) ? 1 : 0;
}

static int gomysql_stmt_free_result(MYSQL_STMT* s) {
	return mysql_stmt_free_result(s) ? 1 : 0;
}

static int gomysql_stmt_close(MYSQL_STMT* s) {
	return mysql_stmt_close(s) ? 1 : 0;
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/LadybugDB/go-mysqlclient/native"
)

type connection struct {
	mysql *C.MYSQL
}

// statement pins the Go memory behind its descriptors for as long as the
// native statement may touch it.
type statement struct {
	stmt    *C.MYSQL_STMT
	params  runtime.Pinner
	results runtime.Pinner
}

type driver struct {
	mu     sync.Mutex
	argv   []*C.char
	groups []*C.char
	cArgv  **C.char
	cGroup **C.char
}

// New returns a driver backed by the linked client library.
func New() (native.Driver, error) {
	return &driver{}, nil
}

func connOf(h native.Handle) *connection {
	return cgo.Handle(h).Value().(*connection)
}

func stmtOf(h native.Handle) *statement {
	return cgo.Handle(h).Value().(*statement)
}

// cStringArray builds a NULL-terminated C array of strings.
func cStringArray(values []string) ([]*C.char, **C.char) {
	if len(values) == 0 {
		return nil, nil
	}
	strs := make([]*C.char, len(values))
	arr := (**C.char)(C.calloc(C.size_t(len(values)+1), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	slots := unsafe.Slice(arr, len(values)+1)
	for i, v := range values {
		strs[i] = C.CString(v)
		slots[i] = strs[i]
	}
	return strs, arr
}

func freeStringArray(strs []*C.char, arr **C.char) {
	for _, s := range strs {
		C.free(unsafe.Pointer(s))
	}
	if arr != nil {
		C.free(unsafe.Pointer(arr))
	}
}

// cStringOrNil maps the empty string to NULL, which the client library reads
// as "use the default".
func cStringOrNil(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func (d *driver) LibraryInit(args, groups []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.argv, d.cArgv = cStringArray(args)
	d.groups, d.cGroup = cStringArray(groups)
	status := int(C.gomysql_library_init(C.int(len(args)), d.cArgv, d.cGroup))
	if status != 0 {
		d.release()
	}
	return status
}

func (d *driver) LibraryEnd() {
	d.mu.Lock()
	defer d.mu.Unlock()

	C.gomysql_library_end()
	d.release()
}

// release frees the init arguments, which the embedded server may read until
// the library ends.
func (d *driver) release() {
	freeStringArray(d.argv, d.cArgv)
	freeStringArray(d.groups, d.cGroup)
	d.argv, d.cArgv, d.groups, d.cGroup = nil, nil, nil, nil
}

func (d *driver) ConnInit() native.Handle {
	m := C.mysql_init(nil)
	if m == nil {
		return 0
	}
	return native.Handle(cgo.NewHandle(&connection{mysql: m}))
}

func (d *driver) ConnConnect(h native.Handle, host, user, password, database string, port uint, socket string, flags uint64) native.Handle {
	c := connOf(h)

	cHost, cUser, cPassword := cStringOrNil(host), cStringOrNil(user), cStringOrNil(password)
	cDatabase, cSocket := cStringOrNil(database), cStringOrNil(socket)
	defer func() {
		for _, s := range []*C.char{cHost, cUser, cPassword, cDatabase, cSocket} {
			if s != nil {
				C.free(unsafe.Pointer(s))
			}
		}
	}()

	if C.mysql_real_connect(c.mysql, cHost, cUser, cPassword, cDatabase, C.uint(port), cSocket, C.ulong(flags)) == nil {
		return 0
	}
	return h
}

func (d *driver) ConnError(h native.Handle) string {
	return C.GoString(C.mysql_error(connOf(h).mysql))
}

func (d *driver) ConnSetAutoCommit(h native.Handle, enabled bool) int {
	mode := C.int(0)
	if enabled {
		mode = 1
	}
	return int(C.gomysql_autocommit(connOf(h).mysql, mode))
}

func (d *driver) ConnServerVersion(h native.Handle) uint64 {
	return uint64(C.mysql_get_server_version(connOf(h).mysql))
}

func (d *driver) ConnClose(h native.Handle) {
	C.mysql_close(connOf(h).mysql)
	cgo.Handle(h).Delete()
}

func (d *driver) StmtInit(conn native.Handle) native.Handle {
	s := C.mysql_stmt_init(connOf(conn).mysql)
	if s == nil {
		return 0
	}
	return native.Handle(cgo.NewHandle(&statement{stmt: s}))
}

func (d *driver) StmtPrepare(h native.Handle, sql string) int {
	cSQL := C.CString(sql)
	defer C.free(unsafe.Pointer(cSQL))
	return int(C.mysql_stmt_prepare(stmtOf(h).stmt, cSQL, C.ulong(len(sql))))
}

// bindArray copies descriptors into a C MYSQL_BIND array, pinning every Go
// pointer the driver keeps. The client library copies the array itself, so
// the array is freed by the caller right after the bind call.
func bindArray(pinner *runtime.Pinner, binds []native.Bind) *C.MYSQL_BIND {
	pinner.Unpin()
	arr := C.gomysql_alloc_binds(C.size_t(len(binds)))
	for i, b := range binds {
		if b.Buffer != nil {
			pinner.Pin(b.Buffer)
		}
		var length *C.ulong
		if b.Length != nil {
			pinner.Pin(b.Length)
			length = (*C.ulong)(unsafe.Pointer(b.Length))
		}
		var isNull unsafe.Pointer
		if b.IsNull != nil {
			pinner.Pin(b.IsNull)
			isNull = unsafe.Pointer(b.IsNull)
		}
		C.gomysql_set_bind(arr, C.size_t(i), C.int(b.Type), b.Buffer, C.ulong(b.BufferLength), length, isNull)
	}
	return arr
}

func (d *driver) StmtBindParam(h native.Handle, binds []native.Bind) int {
	s := stmtOf(h)
	arr := bindArray(&s.params, binds)
	defer C.free(unsafe.Pointer(arr))
	return int(C.gomysql_stmt_bind_param(s.stmt, arr))
}

func (d *driver) StmtBindResult(h native.Handle, binds []native.Bind) int {
	s := stmtOf(h)
	arr := bindArray(&s.results, binds)
	defer C.free(unsafe.Pointer(arr))
	return int(C.gomysql_stmt_bind_result(s.stmt, arr))
}

func (d *driver) StmtExecute(h native.Handle) int {
	return int(C.mysql_stmt_execute(stmtOf(h).stmt))
}

func (d *driver) StmtFetch(h native.Handle) native.FetchStatus {
	switch C.mysql_stmt_fetch(stmtOf(h).stmt) {
	case 0:
		return native.FetchOK
	case C.MYSQL_NO_DATA:
		return native.FetchNoData
	default:
		return native.FetchError
	}
}

func (d *driver) StmtFreeResult(h native.Handle) int {
	return int(C.gomysql_stmt_free_result(stmtOf(h).stmt))
}

func (d *driver) StmtClose(h native.Handle) int {
	s := stmtOf(h)
	status := int(C.gomysql_stmt_close(s.stmt))
	s.params.Unpin()
	s.results.Unpin()
	cgo.Handle(h).Delete()
	return status
}

func (d *driver) StmtError(h native.Handle) string {
	return C.GoString(C.mysql_stmt_error(stmtOf(h).stmt))
}
