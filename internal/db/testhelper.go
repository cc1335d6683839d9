package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite gives a test its own migrated governance store under
// t.TempDir() and registers cleanup. It returns the same write/read pool
// pair the server runs on; repository tests that never contend can do
// everything through writeDB.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "govhub-test.sqlite"), 2)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}

	return writeDB, readDB
}
