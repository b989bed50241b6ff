package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes. Validation codes abort an analysis before any
// computation; the remainder are infrastructure failures.
const (
	CodeColumnNotFound     = "COLUMN_NOT_FOUND"
	CodeInsufficientLevels = "INSUFFICIENT_LEVELS"
	CodeInsufficientObs    = "INSUFFICIENT_OBSERVATIONS"
	CodeInvalidAlpha       = "INVALID_ALPHA"
	CodeInvalidEnum        = "INVALID_ENUM"
	CodeDesignMismatch     = "DESIGN_MISMATCH"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
)

// Common error constructors

func ColumnNotFound(name string) *AppError {
	return New(CodeColumnNotFound, fmt.Sprintf("column %q not found", name))
}

func InsufficientLevels(factor string, got, want int) *AppError {
	return New(CodeInsufficientLevels,
		fmt.Sprintf("factor %q has %d levels, need %d", factor, got, want))
}

func InsufficientObservations(level string, got, want int) *AppError {
	return New(CodeInsufficientObs,
		fmt.Sprintf("group %q has %d observations, need at least %d", level, got, want))
}

func InvalidAlpha(alpha float64) *AppError {
	return New(CodeInvalidAlpha, fmt.Sprintf("alpha %v outside open interval (0,1)", alpha))
}

func InvalidEnum(field, value string) *AppError {
	return New(CodeInvalidEnum, fmt.Sprintf("invalid %s %q", field, value))
}

func DesignMismatch(message string) *AppError {
	return New(CodeDesignMismatch, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
