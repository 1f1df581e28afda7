//go:build sqlite_cgo && !purego
// +build sqlite_cgo,!purego

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
// It links the C SQLite library through cgo.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
//
// The cgo driver provides:
//   - The reference C SQLite implementation
//   - Faster bulk inserts on large indexes
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
