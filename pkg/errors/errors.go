// Package errors classifies failures so that transports can map them to
// status codes without knowing which layer raised them.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the failure class of an AppError
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	// ErrorTypeConflict means the booking or service is in a state that forbids the operation
	ErrorTypeConflict ErrorType = "CONFLICT"
	ErrorTypeInternal ErrorType = "INTERNAL"
	// ErrorTypeExternal covers third-party services such as search or the event stream
	ErrorTypeExternal ErrorType = "EXTERNAL"
	// ErrorTypeUpstream covers storage reads and writes
	ErrorTypeUpstream ErrorType = "UPSTREAM"
)

var statusByType = map[ErrorType]int{
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeExternal:     http.StatusBadGateway,
	ErrorTypeUpstream:     http.StatusBadGateway,
}

// HTTPStatus returns the response status for the error class
func (t ErrorType) HTTPStatus() int {
	if status, ok := statusByType[t]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ClientFacing reports whether the message of this class may be shown to callers
func (t ErrorType) ClientFacing() bool {
	return t.HTTPStatus() < http.StatusInternalServerError
}

// AppError is a classified error with a caller-safe message
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
// Errors that carry no AppError are reported as internal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// MessageOf returns the caller-safe message of the first AppError in err's chain
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

func NewNotFoundError(message string) *AppError {
	return newError(ErrorTypeNotFound, message, nil)
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, nil)
}

func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, message, nil)
}

func NewUnauthorizedError(message string) *AppError {
	return newError(ErrorTypeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return newError(ErrorTypeForbidden, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return newError(ErrorTypeInternal, message, err)
}

// NewExternalError wraps a failure of a third-party service
func NewExternalError(message string, err error) *AppError {
	return newError(ErrorTypeExternal, message, err)
}

// NewUpstreamError wraps a storage failure
func NewUpstreamError(message string, err error) *AppError {
	return newError(ErrorTypeUpstream, message, err)
}
