// Package sqlite opens SQLite databases through whichever driver the build
// selected: pure Go (modernc.org/sqlite) by default, or CGO
// (mattn/go-sqlite3) when built with -tags cgo_sqlite.
//
// Callers use Open rather than sql.Open so the driver name always matches the
// linked implementation.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

// DriverName returns the database/sql driver name of the linked driver.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO driver is linked.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a database file, or an in-memory database for ":memory:".
// SQLite allows one writer, so the pool is limited to a single connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenContext opens path and verifies the connection.
func OpenContext(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return db, nil
}

// OpenReadOnly opens an existing database file without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return Open(dsn + "?mode=ro")
}

// Info describes the linked driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the linked driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
