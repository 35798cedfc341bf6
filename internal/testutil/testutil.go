package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/claimlab/apiserver/config"
	"github.com/claimlab/apiserver/internal/db"
)

// OpenSQLite opens a named in-memory sqlite database with migrations applied.
// Distinct names give isolated databases; the handle is closed on cleanup.
func OpenSQLite(t *testing.T, name string) *sql.DB {
	t.Helper()
	conn, err := sql.Open(config.DriverSQLite, "file:"+name+"?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.MigrateDB(conn, config.DriverSQLite); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// SeededSQLite is OpenSQLite followed by the workshop seed.
func SeededSQLite(t *testing.T, name string) *sql.DB {
	t.Helper()
	conn := OpenSQLite(t, name)
	if err := db.Seed(context.Background(), conn); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	return conn
}
