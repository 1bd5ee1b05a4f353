package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tejzpr/helpdesk/internal/validation"
)

func TestMapNil(t *testing.T) {
	assert.NoError(t, Map(nil))
}

func TestMapPassesDomainErrorsThrough(t *testing.T) {
	in := NotAcceptable("requesterId:%d,isActive:true", 3)
	out := Map(fmt.Errorf("save: %w", in))

	assert.Same(t, in, out)
	assert.Equal(t, KindNotAcceptable, KindOf(out))
}

func TestMapValidationErrors(t *testing.T) {
	err := Map(validation.Errors{
		{Field: "email", Reason: "must be a valid address."},
		{Field: "fullName", Reason: "must not be blank."},
	})

	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "email: must be a valid address.; fullName: must not be blank.", err.Error())
}

func TestMapPostgresUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "idx_requesters_email"`,
		Detail:  "Key (email)=(a@b.co) already exists.",
	}
	err := Map(fmt.Errorf("create: %w", pgErr))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Key (email)=(a@b.co) already exists.", err.Error())
}

func TestMapPostgresForeignKeyWithoutDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"}
	err := Map(pgErr)

	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "insert or update violates foreign key constraint", err.Error())
}

func TestMapPostgresNotNull(t *testing.T) {
	err := Map(&pgconn.PgError{Code: "23502", Message: `null value in column "email"`})
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestMapPostgresOtherCodeIsInternal(t *testing.T) {
	err := Map(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Unexpected persistence error", err.Error())
}

func TestMapSQLiteConstraints(t *testing.T) {
	unique := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	assert.Equal(t, KindConflict, KindOf(Map(unique)))

	fk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	assert.Equal(t, KindConflict, KindOf(Map(fk)))

	notNull := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}
	assert.Equal(t, KindBadRequest, KindOf(Map(notNull)))

	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	assert.Equal(t, KindInternal, KindOf(Map(busy)))
}

func TestMapGormTranslatedErrors(t *testing.T) {
	err := Map(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, gorm.ErrDuplicatedKey.Error(), err.Error())

	assert.Equal(t, KindConflict, KindOf(Map(gorm.ErrForeignKeyViolated)))
	assert.Equal(t, KindBadRequest, KindOf(Map(gorm.ErrCheckConstraintViolated)))
}

func TestMapUnknownIsInternalAndKeepsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Map(cause)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Unexpected persistence error", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorsIsMatchesKindSentinels(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("requesterId:%d", 9))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:    http.StatusBadRequest,
		KindNotFound:      http.StatusNotFound,
		KindNotAcceptable: http.StatusNotAcceptable,
		KindConflict:      http.StatusConflict,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind.String())
		assert.Equal(t, kind, FromStatus(status, "m").Kind, kind.String())
	}
}
