package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrTransientStorage = errors.New("transient storage error")
)

// AppError carries a category sentinel plus a human-readable message.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden indicates the caller (or target) may not perform the action.
// HTTP handlers map this to 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func NotFound(resource string, id int) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// TransientStorage wraps a persistence failure that the caller may retry.
func TransientStorage(op string, err error) *AppError {
	return &AppError{
		Err:     ErrTransientStorage,
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}
