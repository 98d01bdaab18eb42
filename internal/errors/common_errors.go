package errors

import (
	goerrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeMalformedInput ErrorType = "MALFORMED_INPUT"
	ErrTypeTypeCoercion   ErrorType = "TYPE_COERCION"
	ErrTypeInvalidColumn  ErrorType = "INVALID_COLUMN"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeConfig         ErrorType = "CONFIG"
	ErrTypeRender         ErrorType = "RENDER"
)

// Sentinels for errors.Is matching. They compare by Type only.
var (
	ErrNotFound       = &AppError{Type: ErrTypeNotFound}
	ErrMalformedInput = &AppError{Type: ErrTypeMalformedInput}
	ErrTypeCoercion   = &AppError{Type: ErrTypeTypeCoercion}
	ErrInvalidColumn  = &AppError{Type: ErrTypeInvalidColumn}
	ErrStorage        = &AppError{Type: ErrTypeStorage}
	ErrConfig         = &AppError{Type: ErrTypeConfig}
	ErrRender         = &AppError{Type: ErrTypeRender}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Message == "" && t.Cause == nil {
		return e.Type == t.Type
	}
	return e == t
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType carried by err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if goerrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewNotFoundError reports an input path that does not resolve to a readable file.
func NewNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("input %s is not a readable file", path), cause).
		WithContext("path", path)
}

// NewMalformedInputError reports a structural problem in the input. Row is the
// 1-based data row (0 for the header).
func NewMalformedInputError(path string, row int, message string) *AppError {
	msg := fmt.Sprintf("%s: %s", path, message)
	if row > 0 {
		msg = fmt.Sprintf("%s: row %d: %s", path, row, message)
	}
	return NewAppError(ErrTypeMalformedInput, msg, nil).
		WithContext("path", path).
		WithContext("row", row)
}

// NewTypeCoercionError reports a cell that cannot be parsed into its column type.
func NewTypeCoercionError(column string, row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeTypeCoercion,
		fmt.Sprintf("row %d: column %q: cannot parse %q", row, column, value), cause).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", value)
}

// NewInvalidColumnError reports a requested column that is absent or unusable.
func NewInvalidColumnError(column string, reason string) *AppError {
	return NewAppError(ErrTypeInvalidColumn, fmt.Sprintf("column %q %s", column, reason), nil).
		WithContext("column", column)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewRenderError creates a chart rendering error
func NewRenderError(chart string, cause error) *AppError {
	return NewAppError(ErrTypeRender, fmt.Sprintf("failed to render chart %s", chart), cause).
		WithContext("chart", chart)
}
