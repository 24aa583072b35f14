package pgutil_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperror "cratetrack/internal/errors"
	"cratetrack/internal/repository/pgutil"
)

func TestTranslate(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "crates_tenant_nfc_uid_key"}

	assert.Nil(t, pgutil.Translate(nil, "op", "dup"))
	assert.IsType(t, &apperror.DuplicateKeyError{}, pgutil.Translate(dup, "op", "nfcUid duplicado"))
	assert.IsType(t, &apperror.InternalError{}, pgutil.Translate(dup, "op", ""))
	assert.IsType(t, &apperror.InternalError{}, pgutil.Translate(errors.New("conn reset"), "op", "dup"))

	notFound := apperror.NewNotFoundError("caixa")
	assert.Equal(t, notFound, pgutil.Translate(notFound, "op", "dup"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, pgutil.IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, pgutil.IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}

func TestNullableConversions(t *testing.T) {
	s := "loc-1"
	assert.Equal(t, sql.NullString{String: "loc-1", Valid: true}, pgutil.NullString(&s))
	assert.False(t, pgutil.NullString(nil).Valid)
	assert.Nil(t, pgutil.StringPtr(sql.NullString{}))
	assert.Equal(t, "x", *pgutil.StringPtr(sql.NullString{String: "x", Valid: true}))

	now := time.Now()
	assert.Equal(t, now, *pgutil.TimePtr(pgutil.NullTime(&now)))
	assert.Nil(t, pgutil.TimePtr(pgutil.NullTime(nil)))
}
