package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
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

// Common error codes
const (
	ErrValidation ErrorCode = iota + 1000
	ErrAuthentication
	ErrRateLimited
	ErrTransient
	ErrCompliance
	ErrInternal
)

// Error constructors
func NewValidation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func NewAuthentication(err error) *AppError {
	return &AppError{
		Code:    ErrAuthentication,
		Message: "authentication with upstream service failed",
		Err:     err,
	}
}

func NewRateLimited(err error) *AppError {
	return &AppError{
		Code:      ErrRateLimited,
		Message:   "upstream rate limit exceeded",
		Retryable: true,
		Err:       err,
	}
}

func NewTransient(message string, err error) *AppError {
	return &AppError{
		Code:      ErrTransient,
		Message:   message,
		Retryable: true,
		Err:       err,
	}
}

func NewCompliance(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCompliance,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable reports whether err wraps an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
