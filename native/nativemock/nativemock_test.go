package nativemock

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LadybugDB/go-mysqlclient/native"
)

func TestViolations(t *testing.T) {
	t.Parallel()

	d := New(Config{})
	require.Zero(t, d.LibraryInit(nil, nil))
	require.Zero(t, d.LibraryInit(nil, nil))
	d.LibraryEnd()
	d.LibraryEnd()
	d.ConnClose(0)
	assert.Equal(t, 1, d.StmtClose(0xdead))

	assert.Len(t, d.Violations(), 4)
	assert.Equal(t, 2, d.Count(FnLibraryInit))
}

func TestConnectionLifecycle(t *testing.T) {
	t.Parallel()

	d := New(Config{ServerVersion: 100500})
	h := d.ConnInit()
	require.NotZero(t, h)
	assert.Zero(t, d.ConnServerVersion(h))
	assert.Equal(t, 1, d.ConnSetAutoCommit(h, false), "autocommit needs a live session")

	assert.Equal(t, h, d.ConnConnect(h, "localhost", "root", "", "", 3306, "", 0))
	assert.Equal(t, uint64(100500), d.ConnServerVersion(h))
	assert.Zero(t, d.ConnSetAutoCommit(h, false))
	assert.False(t, d.AutoCommit(h))

	d.ConnClose(h)
	assert.Zero(t, d.OpenHandles())
	assert.Empty(t, d.Violations())
}

func TestConnectFailure(t *testing.T) {
	t.Parallel()

	d := New(Config{ConnectError: "Unknown MySQL server host 'nowhere'"})
	h := d.ConnInit()
	assert.Zero(t, d.ConnConnect(h, "nowhere", "root", "", "", 3306, "", 0))
	assert.Equal(t, "Unknown MySQL server host 'nowhere'", d.ConnError(h))
	assert.Zero(t, d.StmtInit(0))
}

func TestStatementRoundTrip(t *testing.T) {
	t.Parallel()

	d := New(Config{Statements: map[string]Script{
		"SELECT a, b FROM t WHERE c = ?": {Rows: [][]any{{int64(300), "xyz"}}},
	}})
	conn := d.ConnInit()
	d.ConnConnect(conn, "", "", "", "", 0, "", 0)
	stmt := d.StmtInit(conn)
	require.NotZero(t, stmt)

	require.Zero(t, d.StmtPrepare(stmt, "SELECT a, b FROM t WHERE c = ?"))
	assert.Equal(t, 1, d.StmtExecute(stmt), "execute without parameters")
	assert.Equal(t, 1, d.StmtBindParam(stmt, nil), "wrong parameter count")

	c := int16(-2)
	require.Zero(t, d.StmtBindParam(stmt, []native.Bind{
		{Type: native.TypeShort, Buffer: unsafe.Pointer(&c), BufferLength: 2},
	}))

	var a int16
	b := make([]byte, 2)
	var bLen uint64
	require.Zero(t, d.StmtBindResult(stmt, []native.Bind{
		{Type: native.TypeShort, Buffer: unsafe.Pointer(&a), BufferLength: 2},
		{Type: native.TypeString, Buffer: unsafe.Pointer(&b[0]), BufferLength: 2, Length: &bLen},
	}))
	require.Zero(t, d.StmtExecute(stmt))

	// "xyz" does not fit in two bytes.
	assert.Equal(t, native.FetchError, d.StmtFetch(stmt))
	assert.Equal(t, "Data truncated", d.StmtError(stmt))
	assert.Equal(t, int16(300), a)
	assert.Equal(t, uint64(3), bLen)
	assert.Equal(t, "xy", string(b))
	assert.Equal(t, native.FetchNoData, d.StmtFetch(stmt))

	require.Zero(t, d.StmtFreeResult(stmt))
	assert.Equal(t, native.FetchError, d.StmtFetch(stmt))

	execs := d.Executions()
	require.Len(t, execs, 1)
	assert.Equal(t, []any{int16(-2)}, execs[0].Params)

	assert.Zero(t, d.StmtClose(stmt))
	d.ConnClose(conn)
	assert.Zero(t, d.OpenHandles())
	assert.Empty(t, d.Violations())
}

func TestReadValueNull(t *testing.T) {
	t.Parallel()

	v := int32(5)
	null := true
	assert.Nil(t, readValue(native.Bind{Type: native.TypeLong, Buffer: unsafe.Pointer(&v), BufferLength: 4, IsNull: &null}))
	null = false
	assert.Equal(t, int32(5), readValue(native.Bind{Type: native.TypeLong, Buffer: unsafe.Pointer(&v), BufferLength: 4, IsNull: &null}))
}

func TestWriteValueTypeMismatch(t *testing.T) {
	t.Parallel()

	var n int64
	_, err := writeValue(native.Bind{Type: native.TypeLongLong, Buffer: unsafe.Pointer(&n), BufferLength: 8}, "seven")
	assert.Error(t, err)

	var f float32
	_, err = writeValue(native.Bind{Type: native.TypeFloat, Buffer: unsafe.Pointer(&f), BufferLength: 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(2), f)
}
