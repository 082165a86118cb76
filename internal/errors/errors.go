package errors

import (
	stderrors "errors"
)

// Process exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ContextKeyPath is the context key holding the file a failure refers to
const ContextKeyPath = "path"

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or the empty type when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsNotFound reports whether err is a NOT_FOUND AppError
func IsNotFound(err error) bool {
	return IsType(err, ErrTypeNotFound)
}

// PathOf returns the path recorded on the first AppError in err's chain
func PathOf(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return ""
	}
	if p, ok := appErr.Context[ContextKeyPath].(string); ok {
		return p
	}
	return ""
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsType(err, ErrTypeValidation):
		return ExitUsage
	default:
		return ExitError
	}
}
