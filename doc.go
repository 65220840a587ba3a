/*
Package mysqlclient manages the lifecycle of a native MySQL client library and
binds typed Go buffers to prepared statements.

Three types form a strict ownership chain:

  - Library wraps init and shutdown of the native library. There is at most
    one live Library per process; AcquireLibrary returns it and Release drops
    a reference.
  - Connection owns one native connection handle and a reference on the
    Library.
  - PreparedStatement owns one native statement handle and a reference on its
    Connection, plus the parameter and result descriptor arrays.

Each object keeps its parent alive, so teardown always runs in reverse order
no matter in which order the caller closes them.

A typical query:

	lib, err := mysqlclient.AcquireLibrary(driver)
	if err != nil {
		return err
	}
	defer lib.Release()

	conn, err := mysqlclient.NewConnection(lib)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Connect("localhost", 3306, "app", "reader", "secret", 0); err != nil {
		return err
	}

	stmt, err := mysqlclient.NewPreparedStatement(conn)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var id, want int32 = 0, 7
	if err := stmt.Prepare("SELECT id FROM t WHERE id = ?"); err != nil {
		return err
	}
	_ = stmt.AddParameter(&want)
	_ = stmt.AddResult(&id)
	if err := stmt.BindParameters(); err != nil {
		return err
	}
	if err := stmt.BindResults(); err != nil {
		return err
	}
	if err := stmt.Execute(); err != nil {
		return err
	}
	for {
		ok, err := stmt.Fetch()
		if err != nil || !ok {
			return err
		}
		// id holds the current row
	}

Descriptors point at caller memory; nothing is copied. Buffers must outlive
every Execute and Fetch that may touch them.
*/
package mysqlclient
