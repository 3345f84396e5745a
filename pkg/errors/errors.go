package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the stable error code shown to REST clients.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal_error"
)

// internalMessage replaces causes that must not leave the server.
const internalMessage = "An internal error occurred"

// Error is implemented by every application error in this package.
// Both transports map errors through it.
type Error interface {
	error
	Kind() Kind
	HTTPStatus() int
	GRPCStatus() *status.Status
	// Public is the message safe to return to clients.
	Public() string
}

var (
	_ Error = (*ValidationError)(nil)
	_ Error = (*NotFoundError)(nil)
	_ Error = (*InternalError)(nil)
)

// ValidationError represents rejected input, optionally tied to one field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Kind() Kind      { return KindValidation }
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Public() string  { return e.Error() }

func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// NotFoundError represents a lookup without a result
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Kind() Kind      { return KindNotFound }
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Public() string  { return e.Error() }

func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// InternalError wraps an infrastructure failure.
// Only Message reaches clients; the cause stays in logs.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) Kind() Kind      { return KindInternal }
func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }
func (e *InternalError) Public() string  { return e.Message }

func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

// Classify returns the first application error in err's chain.
// Anything else is treated as an internal error with a generic message.
func Classify(err error) Error {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(internalMessage, err)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
