package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMatchSentinels(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.ErrorIs(t, Authentication(), ErrInvalidCredentials)
	assert.ErrorIs(t, Authorization(), ErrUnauthorized)
	assert.ErrorIs(t, Invalid("name", "name is required"), ErrValidation)
	assert.ErrorIs(t, NotFound("product"), ErrNotFound)
	assert.ErrorIs(t, Upload(cause), ErrUpload)
	assert.ErrorIs(t, Upload(cause), cause)
	assert.ErrorIs(t, Persistence(cause), ErrPersistence)
	assert.ErrorIs(t, Persistence(cause), cause)
	assert.ErrorIs(t, Conflict("product"), ErrConflict)
}

func TestMessagesAreClientSafe(t *testing.T) {
	err := Persistence(errors.New("duplicate key value violates unique constraint \"idx_blog_posts_slug\""))

	assert.Equal(t, "internal server error", err.Message)
	assert.Equal(t, "invalid email or password", Authentication().Error())
	assert.Equal(t, "unauthorized", Authorization().Error())
	assert.Equal(t, "product not found", NotFound("product").Error())
}

func TestValidationSummary(t *testing.T) {
	err := Validation(map[string]string{
		"price": "price is required",
		"name":  "name is required",
	})

	assert.Equal(t, "name is required; price is required", err.Message)
	assert.Len(t, err.Fields, 2)

	var appErr *AppError
	assert.True(t, errors.As(error(err), &appErr))
	assert.Equal(t, "VALIDATION", appErr.Code)
}
