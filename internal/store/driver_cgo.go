//go:build sqlite_cgo

package store

// Build with:
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...
import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver registered for SQLite
const SQLiteDriverName = "sqlite3"
