// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// looking at driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness or foreign
// key constraint, for example a second live booking of the same table on
// the same night, or deleting a table that still has reservations.
// Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email twice.
var ErrEmailExists = errors.New("email already exists")

// MySQL server error numbers we translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

// isDuplicateKey reports whether err is a MySQL duplicate-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isReferenced reports whether err is a MySQL foreign key violation raised
// when deleting a parent row.
func isReferenced(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlRowIsReferenced
}

// ErrLocked is returned when a short-lived lock is already held by
// another request.
var ErrLocked = errors.New("locked")
