package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	errInvalidName := Validation("invalid_tenant_name")
	wrapped := fmt.Errorf("create tenant: %w", errInvalidName)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, errors.Is(wrapped, errInvalidName))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, Validation("invalid_status")))
	assert.Equal(t, "tenant_name", errInvalidName.Field)
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestStorageWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("put object", cause)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "put object: connection reset", err.Error())

	// already classified errors pass through untouched
	notFound := NotFound("check_not_found")
	assert.Same(t, notFound, Storage("load", notFound))
	assert.NoError(t, Storage("noop", nil))
}

type createTenantInput struct {
	TenantName string `json:"tenant_name" validate:"required,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=Incoming Processed"`
}

func TestValidateStructBuildsFieldList(t *testing.T) {
	err := ValidateStruct(createTenantInput{Status: "Archived"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var vErrs *ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	require.Len(t, vErrs.Errors, 2)
	assert.Equal(t, "tenant_name", vErrs.Errors[0].Field)
	assert.Equal(t, "invalid_tenant_name", vErrs.Errors[0].Code)
	assert.Equal(t, "status", vErrs.Errors[1].Field)

	assert.NoError(t, ValidateStruct(createTenantInput{TenantName: "Stark Industries"}))
}
