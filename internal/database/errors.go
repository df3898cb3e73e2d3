package database

import (
	"database/sql"
	"errors"
	"strings"

	"yatube/internal/utils"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "foreign_key_violation"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return true
		}
		// ON DELETE RESTRICT is enforced through SQLite's trigger machinery
		return liteErr.ExtendedCode == sqlite3.ErrConstraintTrigger &&
			strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}
	return false
}

func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "check_violation"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}

// translateGetError maps a single-row lookup failure to an AppError.
func translateGetError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return utils.NewAppError(utils.ErrNotFound, what+" not found", err)
	}
	return utils.NewAppError(utils.ErrDatabase, "failed to query "+what, err)
}

// translateWriteError maps constraint violations of an insert/update/delete to an AppError.
func translateWriteError(err error, action string) error {
	switch {
	case isUniqueViolation(err):
		return utils.NewAppError(utils.ErrDuplicate, action+": already exists", err)
	case isForeignKeyViolation(err):
		return utils.NewAppError(utils.ErrProtected, action+": referenced row constraint", err)
	case isCheckViolation(err):
		return utils.NewAppError(utils.ErrInvalidInput, action+": check constraint", err)
	default:
		return utils.NewAppError(utils.ErrDatabase, "failed to "+action, err)
	}
}

// translateInsertError is translateWriteError for inserts, where a foreign key failure means
// the referenced row does not exist.
func translateInsertError(err error, action string) error {
	if isForeignKeyViolation(err) {
		return utils.NewAppError(utils.ErrNotFound, action+": referenced row not found", err)
	}
	return translateWriteError(err, action)
}
