// Package errdefs defines the error kinds returned by binary drivers.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

// ExecutableNotFoundError is returned when none of the candidate binaries resolve.
type ExecutableNotFoundError struct {
	Candidates []string // The candidates that were tried, in order
}

// Error implements the error interface.
func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable not found, proposed: %s", strings.Join(e.Candidates, ", "))
}

// NewExecutableNotFoundError creates a new ExecutableNotFoundError.
func NewExecutableNotFoundError(candidates []string) *ExecutableNotFoundError {
	return &ExecutableNotFoundError{
		Candidates: append([]string(nil), candidates...),
	}
}

// InvalidArgumentError represents a bad binary path, a missing binary or an
// unknown listener.
type InvalidArgumentError struct {
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// NewInvalidArgumentError creates a new InvalidArgumentError with a formatted message.
func NewInvalidArgumentError(format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{
		Message: fmt.Sprintf(format, args...),
	}
}

// ExecutionFailureError represents a command that failed to start or exited unsuccessfully.
type ExecutionFailureError struct {
	Name        string // The driver name
	CommandLine string // The command line that was attempted
	Cause       error  // The underlying runtime fault, if any
}

// Error implements the error interface.
func (e *ExecutionFailureError) Error() string {
	msg := fmt.Sprintf("%s failed to execute command %s", e.Name, e.CommandLine)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExecutionFailureError) Unwrap() error {
	return e.Cause
}

// NewExecutionFailureError creates a new ExecutionFailureError. cause may be nil.
func NewExecutionFailureError(name, commandLine string, cause error) *ExecutionFailureError {
	return &ExecutionFailureError{
		Name:        name,
		CommandLine: commandLine,
		Cause:       cause,
	}
}

// IsExecutableNotFoundError checks if an error is an ExecutableNotFoundError.
func IsExecutableNotFoundError(err error) bool {
	var target *ExecutableNotFoundError
	return errors.As(err, &target)
}

// IsInvalidArgumentError checks if an error is an InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsExecutionFailureError checks if an error is an ExecutionFailureError.
func IsExecutionFailureError(err error) bool {
	var target *ExecutionFailureError
	return errors.As(err, &target)
}
