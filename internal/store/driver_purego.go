//go:build !sqlite_cgo

package store

// Pure Go SQLite, no C toolchain needed. Used for local runs and tests.
import (
	_ "modernc.org/sqlite"
)

// SQLiteDriverName is the database/sql driver registered for SQLite
const SQLiteDriverName = "sqlite"
