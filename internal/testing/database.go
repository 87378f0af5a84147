// Package testing holds fixtures shared by package tests.
package testing

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// CreateTestDB opens a private in-memory SQLite database, runs each setup
// function against it and closes it when the test ends.
//
// The pool holds a single connection; a second connection to ":memory:"
// would see a different, empty database.
func CreateTestDB(t *testing.T, setup ...func(*sql.DB) error) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory index: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	for _, fn := range setup {
		if err := fn(db); err != nil {
			t.Fatalf("prepare test database: %v", err)
		}
	}
	return db
}
