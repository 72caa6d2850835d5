// Package errors defines the coded application errors used across chatstats.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown    = "UNKNOWN"
	CodeIO         = "IO"
	CodeParse      = "PARSE"
	CodeRender     = "RENDER"
	CodeConfig     = "CONFIG"
	CodeDatabase   = "DATABASE"
	CodeValidation = "VALIDATION"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't have one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

func newError(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

func NewIOError(message string, cause error) error {
	return newError(CodeIO, message, cause)
}

func NewParseError(message string, cause error) error {
	return newError(CodeParse, message, cause)
}

func NewRenderError(message string, cause error) error {
	return newError(CodeRender, message, cause)
}

func NewConfigError(message string, cause error) error {
	return newError(CodeConfig, message, cause)
}

func NewDatabaseError(message string, cause error) error {
	return newError(CodeDatabase, message, cause)
}

func NewValidationError(message string, cause error) error {
	return newError(CodeValidation, message, cause)
}

// LineError points a parse failure at a line (or CSV row) of its input.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
