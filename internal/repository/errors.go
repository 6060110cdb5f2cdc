// Package repository defines error types that are reused across multiple
// repositories.  Handlers use these sentinels to choose a status code:
// anything wrapping ErrNotFound is a 404, the "exists" errors are 409.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is wrapped by every "<entity> not found" error below.
var ErrNotFound = errors.New("not found")

var (
	ErrDepartmentNotFound = fmt.Errorf("department %w", ErrNotFound)
	ErrRoomNotFound       = fmt.Errorf("room %w", ErrNotFound)
	ErrSeminarNotFound    = fmt.Errorf("seminar %w", ErrNotFound)
	ErrShowtimeNotFound   = fmt.Errorf("showtime %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
)

// ErrConflict is returned when a write cannot be applied because of the
// current state of related rows.
var ErrConflict = errors.New("conflict")

var (
	ErrDepartmentExists = errors.New("department name already exists")
	ErrUsernameExists   = errors.New("username already exists")
	ErrEmailExists      = errors.New("email already exists")
)

// ErrSeatTaken is returned by ShowtimeRepo.Book when the unique seat key
// rejects one of the inserted seats.
var ErrSeatTaken = errors.New("seat already booked")

// ErrInvalidRefresh is returned for unknown, revoked or expired refresh tokens.
var ErrInvalidRefresh = errors.New("invalid refresh token")

const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
)

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// duplicateKey reports whether err is a duplicate entry on the named key.
func duplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry && strings.Contains(me.Message, key)
}

func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferenced
}
