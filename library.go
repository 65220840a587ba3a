package mysqlclient

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// registry is the process-wide slot for the live Library. The slot is cleared
// when the last reference is released, so a later AcquireLibrary starts over.
var registry struct {
	mu   sync.Mutex
	live *Library
}

// noCopy makes go vet flag copies of a Library.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Library is the process-wide handle on the native client library. It is the
// root of the ownership graph: every Connection holds a reference to it, and
// the native library is shut down only when the last reference is released.
type Library struct {
	_ noCopy

	driver native.Driver
	status int
	logger *zap.Logger

	// refs is guarded by registry.mu.
	refs int
}

type libraryOptions struct {
	args   []string
	groups []string
	logger *zap.Logger
}

// LibraryOption configures the first acquisition of the Library.
type LibraryOption func(*libraryOptions)

// WithArgs passes command-line style arguments to the native library init.
func WithArgs(args ...string) LibraryOption {
	return func(o *libraryOptions) { o.args = args }
}

// WithGroups passes option-file groups to the native library init.
func WithGroups(groups ...string) LibraryOption {
	return func(o *libraryOptions) { o.groups = groups }
}

// WithLogger sets the logger shared by the Library and everything created
// from it.
func WithLogger(logger *zap.Logger) LibraryOption {
	return func(o *libraryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLibraryConfig applies the library section of a Config.
func WithLibraryConfig(cfg LibraryConfig) LibraryOption {
	return func(o *libraryOptions) {
		o.args = cfg.Args
		o.groups = cfg.Groups
	}
}

// AcquireLibrary returns the live Library, initializing the native library
// first if no live instance exists. When one exists the driver and options are
// ignored and the same instance is returned with one more reference.
//
// Every successful call must be paired with exactly one Release. It is safe to
// call from multiple goroutines.
func AcquireLibrary(driver native.Driver, opts ...LibraryOption) (*Library, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if lib := registry.live; lib != nil {
		lib.refs++
		return lib, nil
	}

	o := libraryOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	status := driver.LibraryInit(o.args, o.groups)
	if status != 0 {
		o.logger.Error("native library init failed", zap.Int("status", status))
		return nil, fmt.Errorf("%w: status %d", ErrInitialization, status)
	}

	lib := &Library{
		driver: driver,
		status: status,
		logger: o.logger,
		refs:   1,
	}
	registry.live = lib
	o.logger.Debug("native library initialized", zap.Strings("args", o.args), zap.Strings("groups", o.groups))
	return lib, nil
}

// Release drops one reference. Dropping the last one shuts the native library
// down, but only if it was initialized successfully. Once the Library is fully
// released further calls are ignored.
func (l *Library) Release() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if l.refs == 0 {
		return
	}
	l.refs--
	if l.refs > 0 {
		return
	}

	if registry.live == l {
		registry.live = nil
	}
	if l.status == 0 {
		l.driver.LibraryEnd()
		l.logger.Debug("native library shut down")
	}
}

// retain adds a reference on behalf of a Connection. It fails once the
// Library has been fully released.
func (l *Library) retain() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if l.refs == 0 {
		return ErrReleased
	}
	l.refs++
	return nil
}

func (l *Library) released() bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return l.refs == 0
}

// Status returns the status code cached from the native library init.
func (l *Library) Status() int { return l.status }

// Logger returns the logger shared by everything created from the Library.
func (l *Library) Logger() *zap.Logger { return l.logger }
