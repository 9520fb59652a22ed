//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Each test runs inside its own transaction that is rolled back when the test
// finishes, so tests can run in parallel without cleanup:
//
//	func TestTaskStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tasks := postgres.NewPostgresTaskStore(tx)
//	        // ...
//	    })
//	}
//
// Tests are skipped when neither DATABASE_URL nor WORKER_TEST_DB_URL is set.
package testdb
