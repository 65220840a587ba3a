package mysqlclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LadybugDB/go-mysqlclient/native/nativemock"
)

const testServerVersion = 80036

// expectNoLiveLibrary fails the test if a Library is still live once every
// other cleanup has run, and clears the slot so later tests start fresh.
func expectNoLiveLibrary(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		registry.mu.Lock()
		leaked := registry.live != nil
		registry.live = nil
		registry.mu.Unlock()
		assert.False(t, leaked, "library still live after test")
	})
}

// acquireMock acquires the Library on a fresh mock driver. The Library is
// released when the test ends.
func acquireMock(t *testing.T, cfg nativemock.Config) (*Library, *nativemock.Driver) {
	t.Helper()
	expectNoLiveLibrary(t)

	if cfg.ServerVersion == 0 {
		cfg.ServerVersion = testServerVersion
	}
	drv := nativemock.New(cfg)
	lib, err := AcquireLibrary(drv)
	require.NoError(t, err)
	t.Cleanup(lib.Release)
	return lib, drv
}

// connectMock returns a connected Connection closed when the test ends.
func connectMock(t *testing.T, lib *Library) *Connection {
	t.Helper()
	conn, err := NewConnection(lib)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	require.NoError(t, conn.Connect("localhost", DefaultPort, "test", "tester", "secret", 0))
	return conn
}

// newStatement returns a statement prepared with sql, closed when the test ends.
func newStatement(t *testing.T, conn *Connection, sql string) *PreparedStatement {
	t.Helper()
	stmt, err := NewPreparedStatement(conn)
	require.NoError(t, err)
	t.Cleanup(stmt.Close)
	require.NoError(t, stmt.Prepare(sql))
	return stmt
}
