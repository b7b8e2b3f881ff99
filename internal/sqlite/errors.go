package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/millbridge/foreman/pkg/types"
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation. The driver surfaces constraint failures as formatted errors,
// so this matches on the message the same way the rest of the ecosystem
// does.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusy reports whether err means the database stayed locked past the busy
// timeout.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// isNotFound reports whether err already carries the not-found class.
func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}

// classify maps a driver-level error onto the store error taxonomy, or
// returns nil when the error carries no recognized class (the caller then
// propagates it as-is).
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return types.ErrNotFound
	case isBusy(err):
		return types.ErrStorageUnavailable
	case isUniqueViolation(err):
		return types.ErrConflict
	default:
		return nil
	}
}
