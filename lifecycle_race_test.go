package mysqlclient

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LadybugDB/go-mysqlclient/native/nativemock"
)

// Concurrent first acquisitions must collapse into a single native init even
// when goroutines are descheduled by GC between check and create.
func TestAcquireLibraryConcurrentFirstAcquire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrent acquisition test in short mode")
	}
	expectNoLiveLibrary(t)

	drv := nativemock.New(nativemock.Config{})

	const numGoroutines = 20
	const acquiresPerGoroutine = 30

	var wg sync.WaitGroup
	start := make(chan struct{})
	libs := make(chan *Library, numGoroutines*acquiresPerGoroutine)
	errChan := make(chan error, numGoroutines*acquiresPerGoroutine)

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for q := 0; q < acquiresPerGoroutine; q++ {
				lib, err := AcquireLibrary(drv)
				if err != nil {
					errChan <- err
					return
				}
				libs <- lib
				runtime.GC()
			}
		}()
	}

	close(start)
	wg.Wait()
	close(libs)
	close(errChan)

	for err := range errChan {
		t.Fatalf("acquire failed: %v", err)
	}

	var first *Library
	held := 0
	for lib := range libs {
		if first == nil {
			first = lib
		}
		require.Same(t, first, lib)
		held++
	}
	require.Equal(t, numGoroutines*acquiresPerGoroutine, held)
	assert.Equal(t, 1, drv.Count(nativemock.FnLibraryInit))

	for i := 0; i < held; i++ {
		first.Release()
	}
	assert.Equal(t, 1, drv.Count(nativemock.FnLibraryEnd))
	assert.Empty(t, drv.Violations())
}

// Goroutines that each run a full acquire/connect/query/teardown cycle may
// overlap or not; either way every init must be matched by exactly one
// shutdown and no handle may leak.
func TestLifecycleConcurrentCycles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrent lifecycle test in short mode")
	}
	expectNoLiveLibrary(t)

	drv := nativemock.New(nativemock.Config{
		ServerVersion: testServerVersion,
		Statements: map[string]nativemock.Script{
			"SELECT id FROM t": {Rows: [][]any{{1}, {2}, {3}}},
		},
	})

	const numGoroutines = 20
	const cyclesPerGoroutine = 30

	var wg sync.WaitGroup
	errChan := make(chan error, numGoroutines*cyclesPerGoroutine)

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for q := 0; q < cyclesPerGoroutine; q++ {
				if err := runCycle(drv); err != nil {
					errChan <- fmt.Errorf("goroutine %d cycle %d: %w", goroutineID, q, err)
					return
				}
				runtime.GC()
			}
		}(g)
	}

	wg.Wait()
	close(errChan)

	var errors []error
	for err := range errChan {
		errors = append(errors, err)
	}
	if len(errors) > 0 {
		t.Fatalf("got %d errors during concurrent cycles: %v", len(errors), errors[0])
	}

	assert.Equal(t, drv.Count(nativemock.FnLibraryInit), drv.Count(nativemock.FnLibraryEnd))
	assert.False(t, drv.Initialized())
	assert.Zero(t, drv.OpenHandles())
	assert.Empty(t, drv.Violations())
}

// runCycle uses every object from a single goroutine and tears it all down.
func runCycle(drv *nativemock.Driver) error {
	lib, err := AcquireLibrary(drv)
	if err != nil {
		return err
	}
	defer lib.Release()

	conn, err := NewConnection(lib)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Connect("localhost", DefaultPort, "test", "tester", "", 0); err != nil {
		return err
	}

	stmt, err := NewPreparedStatement(conn)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var id int64
	if err := stmt.Prepare("SELECT id FROM t"); err != nil {
		return err
	}
	if err := stmt.AddResult(&id); err != nil {
		return err
	}
	if err := stmt.BindResults(); err != nil {
		return err
	}
	if err := stmt.Execute(); err != nil {
		return err
	}

	rows := 0
	for {
		ok, err := stmt.Fetch()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows++
		if id != int64(rows) {
			return fmt.Errorf("row %d: got id %d", rows, id)
		}
	}
	if rows != 3 {
		return fmt.Errorf("got %d rows, want 3", rows)
	}
	return stmt.Stop()
}
