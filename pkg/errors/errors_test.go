package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewUpstreamError("failed to update booking", errors.New("connection reset"))
	assert.Equal(t, "UPSTREAM: failed to update booking: connection reset", err.Error())

	plain := NewNotFoundError("booking b-1 not found")
	assert.Equal(t, "NOT_FOUND: booking b-1 not found", plain.Error())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("snooze: %w", NewConflictError("booking is completed"))

	assert.Equal(t, ErrorTypeConflict, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("boom")))
	assert.True(t, Is(wrapped, ErrorTypeConflict))
	assert.False(t, Is(wrapped, ErrorTypeNotFound))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewUpstreamError("failed to load booking", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		errType      ErrorType
		want         int
		clientFacing bool
	}{
		{ErrorTypeValidation, 400, true},
		{ErrorTypeUnauthorized, 401, true},
		{ErrorTypeForbidden, 403, true},
		{ErrorTypeNotFound, 404, true},
		{ErrorTypeConflict, 409, true},
		{ErrorTypeUpstream, 502, false},
		{ErrorTypeExternal, 502, false},
		{ErrorTypeInternal, 500, false},
		{ErrorType("UNKNOWN"), 500, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.HTTPStatus())
			assert.Equal(t, tt.clientFacing, tt.errType.ClientFacing())
		})
	}
}

func TestMessageOf(t *testing.T) {
	wrapped := fmt.Errorf("create booking: %w", NewValidationError("slot_end must be after slot_start"))
	assert.Equal(t, "slot_end must be after slot_start", MessageOf(wrapped))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
}
