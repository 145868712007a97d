package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrInvalidState,
		ErrUnauthorized, ErrForbidden, ErrInternal, ErrConflict,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", appErr.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "user not found"}
	assert.Equal(t, "NOT_FOUND: user not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		kind   Kind
		code   string
		status int
		target error
	}{
		{"not found", NotFound("order", "abc"), KindNotFound, "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"not found message", NotFoundMessage("Cart not found"), KindNotFound, "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.com"), KindConflict, "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"conflict", Conflict("INVALID_STATUS_TRANSITION", "nope"), KindConflict, "INVALID_STATUS_TRANSITION", http.StatusConflict, ErrConflict},
		{"invalid input", InvalidInput("name is required"), KindValidation, "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"invalid state", InvalidState("CART_EMPTY", "Cart is empty"), KindValidation, "CART_EMPTY", http.StatusBadRequest, ErrInvalidState},
		{"unauthorized", Unauthorized("invalid token"), KindUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("not yours"), KindForbidden, "FORBIDDEN", http.StatusForbidden, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.target))
		})
	}
}

func TestNotFound_MessageNamesResource(t *testing.T) {
	err := NotFound("product", "abc-123")
	assert.Contains(t, err.Message, "product")
	assert.Contains(t, err.Message, "abc-123")
}

func TestInternal_KeepsCause(t *testing.T) {
	err := Internal(fmt.Errorf("segfault"))
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "get user")
	assert.Contains(t, wrapped.Error(), "get user")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{NotFound("order", "1"), KindNotFound},
		{fmt.Errorf("outer: %w", Forbidden("x")), KindForbidden},
		{ErrNotFound, KindNotFound},
		{ErrAlreadyExists, KindConflict},
		{ErrConflict, KindConflict},
		{ErrInvalidInput, KindValidation},
		{ErrInvalidState, KindValidation},
		{ErrUnauthorized, KindUnauthorized},
		{ErrForbidden, KindForbidden},
		{fmt.Errorf("unknown"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("item", "1")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("outer: %w", ErrNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrAlreadyExists))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidState))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("unknown")))
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusForKind(KindNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusForKind(KindValidation))
	assert.Equal(t, http.StatusUnauthorized, StatusForKind(KindUnauthorized))
	assert.Equal(t, http.StatusForbidden, StatusForKind(KindForbidden))
	assert.Equal(t, http.StatusConflict, StatusForKind(KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(KindInternal))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind("SOMETHING_ELSE"))
}
