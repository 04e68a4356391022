package services

import (
	"errors"
	"fmt"
)

// Error codes returned by the service layer. Controllers map these to
// HTTP statuses; none of them are retried inside the engine.
const (
	CodeValidation          = "VALIDATION"
	CodeAuthorization       = "AUTHORIZATION"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeNotFound            = "NOT_FOUND"
)

// ServiceError is a typed failure carried from the service layer to the
// transport layer.
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewConcurrencyConflictError(err error) *ServiceError {
	return &ServiceError{
		Code:    CodeConcurrencyConflict,
		Message: "concurrent update detected, please re-read and retry",
		Err:     err,
	}
}

func NewNotFoundError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err carries the given service error code.
func HasCode(err error, code string) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Code == code
}

func IsValidation(err error) bool    { return HasCode(err, CodeValidation) }
func IsAuthorization(err error) bool { return HasCode(err, CodeAuthorization) }
func IsInvalidState(err error) bool  { return HasCode(err, CodeInvalidState) }
func IsConflict(err error) bool      { return HasCode(err, CodeConcurrencyConflict) }
func IsNotFound(err error) bool      { return HasCode(err, CodeNotFound) }
