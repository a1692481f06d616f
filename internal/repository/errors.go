// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// "row missing" and "unique key already taken" apart from store failures
// without inspecting driver-specific errors itself.
package repository

import (
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a unique
// key: a taken username or email, an edge that already exists, or a video
// already present in a watch history.
var ErrDuplicate = errors.New("duplicate key")

// MySQL error numbers: ER_DUP_ENTRY and ER_NO_REFERENCED_ROW_2.
const (
	mysqlDuplicateEntry = 1062
	mysqlMissingParent  = 1452
)

// isDuplicate reports whether err is a unique constraint violation from
// either supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isMissingParent reports whether err is a foreign key violation on insert,
// which happens when the referenced video or user was deleted concurrently.
func isMissingParent(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlMissingParent
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// notFound maps sql.ErrNoRows to ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// offset converts a 1-indexed page into a row offset.
func offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
