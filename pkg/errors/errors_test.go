package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   ErrorCode
		status int
	}{
		{NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewNotFoundError("stream"), ErrCodeNotFound, http.StatusNotFound},
		{NewUnauthorizedError("nope"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{NewForbiddenError("nope"), ErrCodeForbidden, http.StatusForbidden},
		{NewConflictError("taken"), ErrCodeConflict, http.StatusConflict},
		{NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.Equal(t, tt.status, tt.err.HTTPStatus)
	}
}

func TestAppError_WithCause(t *testing.T) {
	cause := stderrors.New("underlying")
	err := NewInternalError("wrapper").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "underlying")
}

func TestGetAppError(t *testing.T) {
	appErr := NewConflictError("taken")
	wrapped := fmt.Errorf("outer: %w", appErr)

	got := GetAppError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeConflict, got.Code)

	assert.Nil(t, GetAppError(stderrors.New("plain")))
	assert.Nil(t, GetAppError(nil))
}
