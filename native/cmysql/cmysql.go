// Package cmysql implements native.Driver on top of libmysqlclient or
// libmariadb through cgo.
//
// The driver is only compiled with the mysqlclient build tag on 64-bit
// Linux and macOS, where C unsigned long and Go uint64 share a layout:
//
//	go build -tags mysqlclient
//
// Without the tag New returns ErrUnavailable.
package cmysql

import "errors"

// ErrUnavailable is returned by New when the package was built without the
// native client library.
var ErrUnavailable = errors.New("cmysql: built without the mysqlclient tag")
