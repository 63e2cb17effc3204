//go:build !cgo_sqlite

package store

// Pure Go SQLite, no C toolchain needed:
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver backing SQLiteStorage.
const DriverName = "sqlite"
