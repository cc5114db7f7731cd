// Package errors provides structured error types and exit codes for cgt.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the cgt CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (usage error, launcher failure, etc.)
	ExitConfigError      = 2 // Descriptor error (check errors, missing or malformed keys)
	ExitEnvironmentError = 3 // Environment error (missing directories, I/O failure)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindValidation
	KindEnvironment
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	default:
		return "runtime"
	}
}

// Error is the base error type for cgt.
type Error struct {
	Kind    ErrorKind
	Message string
	Key     string // Descriptor key if applicable
	Path    string // File or directory path if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case e.Key != "" && e.Path != "":
		msg = fmt.Sprintf("%s (%s): %s", e.Key, e.Path, e.Message)
	case e.Key != "":
		msg = fmt.Sprintf("%s: %s", e.Key, e.Message)
	case e.Path != "":
		msg = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// WithKey returns a copy of the error annotated with a descriptor key.
func (e *Error) WithKey(key string) *Error {
	c := *e
	c.Key = key
	return &c
}

// WithPath returns a copy of the error annotated with a path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// Config creates a new descriptor configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Validation creates an error for a descriptor that failed its syntax check.
func Validation(count int) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%d error(s) found in descriptor", count),
	}
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// WrapKind wraps an error with additional context and an explicit kind.
func WrapKind(kind ErrorKind, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindRuntime.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRuntime
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitRuntimeError
}
