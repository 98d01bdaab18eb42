package operations

import (
	"context"
	goerrors "errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// OperationError names the step a failure happened in. The cause keeps its
// own type, so errors.Is against the apperrors sentinels still matches.
type OperationError struct {
	Type    ErrorType
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("step %s: %s", e.Step, msg)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewValidationError reports a step whose preconditions do not hold
func NewValidationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: "validation failed",
		Cause:   cause,
	}
}

// NewExecutionError reports a step that failed while running
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports a step that did not start because the run was cancelled
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "cancelled",
		Cause:   cause,
	}
}

// NewInvalidStateError reports a step that ran before the data it needs was produced
func NewInvalidStateError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeInvalidState,
		Step:    step,
		Message: message,
	}
}

// GetErrorType returns the operation error type of err, or "" when err is not one
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if goerrors.As(err, &opErr) {
		return opErr.Type
	}
	return ""
}

// IsCancellation reports whether err stems from context cancellation
func IsCancellation(err error) bool {
	return GetErrorType(err) == ErrorTypeCancellation ||
		goerrors.Is(err, context.Canceled) ||
		goerrors.Is(err, context.DeadlineExceeded)
}
