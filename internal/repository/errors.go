// Package repository holds the MySQL data access code for the catalog,
// users and the booking ledger.  Errors returned to higher layers wrap the
// model sentinels so handlers can branch with errors.Is instead of looking
// at driver errors.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ErrShowNotFound is returned when a show id does not exist.
var ErrShowNotFound = fmt.Errorf("show %w", model.ErrNotFound)

// ErrUserNotFound is returned when a user id or email does not exist.
var ErrUserNotFound = fmt.Errorf("user %w", model.ErrNotFound)

// ErrBookingNotFound is returned when a booking id does not exist.
var ErrBookingNotFound = fmt.Errorf("booking %w", model.ErrNotFound)

// mysqlDuplicateKey is ER_DUP_ENTRY.
const mysqlDuplicateKey = 1062

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateKey
}

// storageErr marks err as a persistence failure unless it already carries a
// domain meaning.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrStorageFailure) {
		return err
	}
	if _, ok := model.AsSeatConflict(err); ok {
		return err
	}
	return fmt.Errorf("%w: %s: %v", model.ErrStorageFailure, op, err)
}
