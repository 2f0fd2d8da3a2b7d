package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/validation"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=editor viewer"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(signUpRequest{Email: "a@b.co", Password: "password1"}))
}

func TestValidator_FieldDetails(t *testing.T) {
	v := validation.New()

	err := v.Validate(signUpRequest{Email: "nope", Password: "short", Role: "admin"})
	require.Error(t, err)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)

	details, ok := de.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Equal(t, "must be at least 8 characters", details["password"])
	assert.Equal(t, "must be one of: editor viewer", details["role"])
}
