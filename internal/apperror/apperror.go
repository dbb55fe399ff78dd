// Package apperror defines the application's error taxonomy.
//
// Services return *AppError values wrapping one of the sentinel errors
// below; HTTP handlers map the sentinels to status codes with errors.Is.
// Anything that doesn't carry a sentinel is treated as an internal error
// and surfaces to the client as a generic 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   resource,
	}
}

// Unauthorized covers the whole 401 family: missing token, invalid token,
// and a valid token whose user no longer exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InsufficientStock reports the exact line that sank a checkout batch so
// the client can tell the user which product to adjust.
func InsufficientStock(productID string, available, requested int) *AppError {
	return &AppError{
		Err:     ErrInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %s: %d available, %d requested", productID, available, requested),
		Field:   productID,
	}
}
