//go:build cgo_sqlite

package store

// CGO SQLite:
//   CGO_ENABLED=1 go build -tags cgo_sqlite ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver backing SQLiteStorage.
const DriverName = "sqlite3"
