// Package repository defines the persistence contract of the booking core
// and its MySQL implementation.  Sentinel values in this file let higher
// layers distinguish failure scenarios without depending on a driver.
// For example, ErrConflict signals that a write lost a race against a
// concurrent transaction (deadlock, lock wait timeout or a duplicate
// key) and should be reported to the caller as a booking conflict.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write cannot be performed because a
// concurrent transaction holds or changed the same rows.  The service
// layer translates it into a conflict error (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when no room exists with the given id or code.
var ErrRoomNotFound = errors.New("room not found")

// ErrBookingNotFound is returned when no booking exists with the given id.
var ErrBookingNotFound = errors.New("booking not found")

// MySQL server error numbers that indicate a lost race rather than a
// broken query.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// mapMySQLError converts driver errors that represent a lost race into
// ErrConflict.  Any other error is returned unchanged.
func mapMySQLError(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry, mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("%w: %s", ErrConflict, me.Message)
		}
	}
	return err
}
