package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsClassify(t *testing.T) {
	tests := []struct {
		err      *AppError
		sentinel error
		status   int
	}{
		{NotFound("product"), ErrNotFound, http.StatusNotFound},
		{InvalidInput("rating must be between 1 and 5"), ErrInvalidInput, http.StatusBadRequest},
		{Unauthorized("invalid credentials"), ErrUnauthorized, http.StatusUnauthorized},
		{Forbidden("Access denied"), ErrForbidden, http.StatusForbidden},
		{Conflict("email already registered"), ErrConflict, http.StatusConflict},
		{ExternalService("payment gateway unavailable", http.StatusBadGateway), ErrExternalService, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.err.Message, PublicMessage(tt.err))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "order not found", NotFound("order").Message)
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:27017: connection refused")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrappedAppErrorStillResolves(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Conflict("checkout already in progress"))

	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.Equal(t, "checkout already in progress", PublicMessage(err))
}

func TestUnclassifiedErrorDefaults(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "internal server error", PublicMessage(err))
}
