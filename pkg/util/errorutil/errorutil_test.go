package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest, CodeValidation},
		{"wrapped conflict", fmt.Errorf("register: %w", NewConflict("email already registered", nil)), http.StatusConflict, CodeConflict},
		{"fiber not found", fiber.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"fiber too many", fiber.ErrTooManyRequests, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{"config", NewInternalConfig(errors.New("secret missing")), http.StatusInternalServerError, CodeInternalConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := ToDomainError(tc.err)
			require.NotNil(t, de)
			assert.Equal(t, tc.status, de.HTTPStatus)
			assert.Equal(t, tc.code, de.Code)
		})
	}
	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorsHideCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: refused")
	de := ToDomainError(NewInternalError(cause))
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)

	de = ToDomainError(fiber.NewError(http.StatusBadGateway, "upstream said no"))
	assert.Equal(t, "internal server error", de.Message)
}

func TestIs(t *testing.T) {
	assert.True(t, Is(fmt.Errorf("x: %w", NewNotFound("user", nil)), CodeNotFound))
	assert.False(t, Is(errors.New("x"), CodeNotFound))
}
