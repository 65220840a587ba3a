package mysqlclient

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// Connection represents a session with a database server. It keeps its
// Library alive and owns exactly one native connection handle.
// Connection is returned by NewConnection.
//
// A Connection is not safe for concurrent use. PreparedStatements created
// from it share it and keep it alive after the caller's Close.
type Connection struct {
	id        uuid.UUID
	library   *Library
	cConn     native.Handle
	logger    *zap.Logger
	refs      atomic.Int32
	connected bool
	isClosed  bool
}

// NewConnection allocates a native connection handle. The returned Connection
// is not yet connected.
func NewConnection(library *Library) (*Connection, error) {
	if library.released() {
		return nil, ErrReleased
	}

	driver := library.driver
	handle := driver.ConnInit()
	if handle == 0 {
		return nil, nativeError(ErrAllocation, "failed to initialize connection object")
	}
	if err := library.retain(); err != nil {
		driver.ConnClose(handle)
		return nil, err
	}

	id := uuid.New()
	conn := &Connection{
		id:      id,
		library: library,
		cConn:   handle,
		logger:  library.logger.With(zap.Stringer("connection", id)),
	}
	conn.refs.Store(1)
	return conn, nil
}

// Connect performs the handshake with the server. On failure the Connection
// stays valid but cannot create statements; Close it and retry with a new one.
func (conn *Connection) Connect(host string, port uint, database, user, password string, flags uint64) error {
	return conn.connect(host, port, database, user, password, "", flags)
}

// ConnectConfig connects using a ConnectionConfig and then applies its
// auto-commit setting, if any.
func (conn *Connection) ConnectConfig(cfg ConnectionConfig) error {
	if err := conn.connect(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.Socket, cfg.Flags); err != nil {
		return err
	}
	if cfg.AutoCommit != nil {
		return conn.SetAutoCommit(*cfg.AutoCommit)
	}
	return nil
}

func (conn *Connection) connect(host string, port uint, database, user, password, socket string, flags uint64) error {
	if conn.isClosed {
		return ErrClosed
	}
	driver := conn.library.driver
	if driver.ConnConnect(conn.cConn, host, user, password, database, port, socket, flags) == 0 {
		msg := driver.ConnError(conn.cConn)
		conn.logger.Warn("connect failed",
			zap.String("host", host), zap.Uint("port", port), zap.String("error", msg))
		return nativeError(ErrConnection, msg)
	}
	conn.connected = true
	conn.logger.Debug("connected",
		zap.String("host", host), zap.Uint("port", port), zap.String("database", database))
	return nil
}

// SetAutoCommit turns transaction auto-commit on or off.
func (conn *Connection) SetAutoCommit(enabled bool) error {
	if conn.isClosed {
		return ErrClosed
	}
	if conn.library.driver.ConnSetAutoCommit(conn.cConn, enabled) != 0 {
		mode := "off"
		if enabled {
			mode = "on"
		}
		return nativeError(ErrConfiguration, "could not set autocommit mode to "+mode)
	}
	return nil
}

// ServerVersion returns the numeric server version, e.g. 80036 for 8.0.36.
// The value is only meaningful once connected.
func (conn *Connection) ServerVersion() uint64 {
	if conn.cConn == 0 {
		return 0
	}
	return conn.library.driver.ConnServerVersion(conn.cConn)
}

// Connected reports whether Connect succeeded.
func (conn *Connection) Connected() bool { return conn.connected }

// ID identifies the Connection in log output.
func (conn *Connection) ID() uuid.UUID { return conn.id }

// Close releases the caller's reference. The native handle is closed once no
// PreparedStatement uses the Connection any more.
// MUST be called when done to prevent resource leaks.
func (conn *Connection) Close() {
	if conn.isClosed {
		return
	}
	conn.isClosed = true
	conn.release()
}

func (conn *Connection) retain() {
	conn.refs.Add(1)
}

func (conn *Connection) release() {
	if conn.refs.Add(-1) != 0 {
		return
	}
	if conn.cConn != 0 {
		conn.library.driver.ConnClose(conn.cConn)
		conn.cConn = 0
		conn.logger.Debug("connection closed")
	}
	conn.library.Release()
}
