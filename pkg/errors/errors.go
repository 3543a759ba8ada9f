package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBusinessRule
	KindInternal
)

// AppError represents an application error. Field carries the request field
// the error keys on, when there is one.
type AppError struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Business-rule error codes surfaced to callers with a 422.
const (
	CodeInvalidInterval     = "invalid_interval"
	CodeInvalidTransition   = "invalid_transition"
	CodeProviderUnavailable = "provider_unavailable"
	CodeAlreadyReviewed     = "already_reviewed"
	CodeNotCompleted        = "not_completed"
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    "validation_error",
		Message: message,
		Field:   field,
	}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "you are not allowed to perform this action"
	}
	return &AppError{
		Kind:    KindForbidden,
		Code:    "forbidden",
		Message: message,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Code:    "unauthorized",
		Message: "unauthorized",
		Err:     err,
	}
}

// BusinessRule builds a 422 error with a stable machine-readable code.
func BusinessRule(code, message string) *AppError {
	return &AppError{
		Kind:    KindBusinessRule,
		Code:    code,
		Message: message,
	}
}

// Internal wraps an unexpected error. The wrapped cause is logged server
// side; only the generic message reaches the caller.
func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    "internal",
		Message: "internal server error",
		Err:     err,
	}
}

// As unwraps err into an *AppError when possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	if appErr, ok := As(err); ok {
		return appErr.Kind == kind
	}
	return false
}
