package verifier

import (
	"errors"
	"fmt"
)

// Error codes attached to failed tasks.
const (
	// ErrCodePrerequisiteUnmet indicates a required node or property was
	// missing when the task ran.
	ErrCodePrerequisiteUnmet = "PREREQUISITE_UNMET"

	// ErrCodeStructural indicates input the task could not interpret.
	ErrCodeStructural = "STRUCTURAL"

	// ErrCodeValidationFailed indicates a check ran and the badge failed it.
	ErrCodeValidationFailed = "VALIDATION_FAILED"

	// ErrCodeUnexpected indicates a handler failure outside the taxonomy.
	ErrCodeUnexpected = "UNEXPECTED"
)

// Error is a task failure with a taxonomy code.
type Error struct {
	// Code is one of the ErrCode* values.
	Code string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a new Error that wraps an underlying error.
func WrapError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Predefined sentinel errors for use with errors.Is.
var (
	// ErrPrerequisiteUnmet matches blocked tasks that could not be retried.
	ErrPrerequisiteUnmet = NewError(ErrCodePrerequisiteUnmet, "could not run due to unmet prerequisites")

	// ErrStructural matches malformed input.
	ErrStructural = NewError(ErrCodeStructural, "input could not be interpreted")

	// ErrUnexpected matches recovered handler failures.
	ErrUnexpected = NewError(ErrCodeUnexpected, "unexpected error")
)

// AsError checks if err is an Error and returns it if so.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an Error, or returns empty string.
func GetErrorCode(err error) string {
	if verr, ok := AsError(err); ok {
		return verr.Code
	}
	return ""
}
