package store

import (
	"database/sql"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
)

// wrapErr classifies a driver error into the bracket error taxonomy.
func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(bracket.ErrNotFound, format, args...)
	}
	if isConstraintViolation(err) {
		return errors.Mark(errors.Wrapf(err, format, args...), bracket.ErrValidation)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), bracket.ErrStorage)
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// expectOne turns an update that touched nothing into ErrNotFound.
func expectOne(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, format, args...)
	}
	if n == 0 {
		return errors.Wrapf(bracket.ErrNotFound, format, args...)
	}
	return nil
}
