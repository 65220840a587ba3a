//go:build !(cgo && mysqlclient && (linux || darwin) && (amd64 || arm64))

package cmysql

import "github.com/LadybugDB/go-mysqlclient/native"

// New returns ErrUnavailable: the native client library is not linked in.
func New() (native.Driver, error) {
	return nil, ErrUnavailable
}
