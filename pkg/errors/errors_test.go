package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_CollectsAllFields(t *testing.T) {
	verr := NewValidationError("name", "required").Add("email", "invalid").Add("name", "second message ignored")

	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, "required", verr.Fields["name"])
	assert.Equal(t, "validation failed: email: invalid; name: required", verr.Error())
}

func TestValidationError_OrNil(t *testing.T) {
	var empty ValidationError
	assert.NoError(t, empty.OrNil())

	var nilErr *ValidationError
	assert.NoError(t, nilErr.OrNil())

	assert.Error(t, NewValidationError("code", "taken").OrNil())
}

func TestTranslateDBError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "branches_school_id_code_key"}
	wrapped := fmt.Errorf("insert branch: %w", pgErr)

	err := TranslateDBError(wrapped)

	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, "branches_school_id_code_key", conflict.Constraint)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsDuplicateConstraintError(err, "branches_school_id_code_key"))

	other := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(other), TranslateDBError(other))
	assert.NoError(t, TranslateDBError(nil))
}

func TestHttpError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	herr := NewHttpError(500, "could not save", cause, nil)

	assert.ErrorIs(t, herr, cause)
	assert.Equal(t, "could not save: disk full", herr.Error())
}
