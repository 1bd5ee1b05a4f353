package apperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/tejzpr/helpdesk/internal/validation"
)

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// Map classifies a store failure. It is the single boundary translation
// applied by every query and mutation operation:
//
//   - *Error values pass through unchanged;
//   - field constraint violations become KindBadRequest;
//   - uniqueness and foreign key violations become KindConflict carrying the
//     store's most specific diagnostic;
//   - anything else becomes KindInternal with a generic message.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var violations validation.Errors
	if errors.As(err, &violations) {
		return &Error{Kind: KindBadRequest, Message: violations.Error(), Cause: err}
	}

	if mapped := mapPG(err); mapped != nil {
		return mapped
	}
	if mapped := mapSQLite(err); mapped != nil {
		return mapped
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &Error{Kind: KindConflict, Message: mostSpecific(err), Cause: err}
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return &Error{Kind: KindBadRequest, Message: mostSpecific(err), Cause: err}
	}

	return Internal(err)
}

func mapPG(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	msg := pgErr.Message
	if pgErr.Detail != "" {
		msg = pgErr.Detail
	}
	switch pgErr.Code {
	case pgUniqueViolation, pgForeignKeyViolation:
		return &Error{Kind: KindConflict, Message: msg, Cause: err}
	case pgNotNullViolation, pgCheckViolation:
		return &Error{Kind: KindBadRequest, Message: msg, Cause: err}
	}
	return nil
}

func mapSQLite(err error) error {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return nil
	}
	switch sqlErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintForeignKey:
		return &Error{Kind: KindConflict, Message: sqlErr.Error(), Cause: err}
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return &Error{Kind: KindBadRequest, Message: sqlErr.Error(), Cause: err}
	}
	return nil
}

// mostSpecific returns the message of the innermost wrapped error.
func mostSpecific(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
