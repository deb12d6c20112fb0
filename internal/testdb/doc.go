//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests run against the database named by DATABASE_URL (or
// DOCGEN_TEST_DATABASE_URL, then DOCGEN_DATABASE_URL) and are skipped when
// none is set. Each test works inside its own transaction, which is rolled
// back when the test completes, so tests do not see each other's rows and
// need no cleanup:
//
//	func TestMyFeature(t *testing.T) {
//	    db := testdb.Open(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        logs := postgres.NewPostgresLogStore(tx, nil)
//	        // ...
//	    })
//	}
package testdb
