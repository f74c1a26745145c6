// Package errors provides coded errors for mdview.
//
// Every failure a user can see carries a [Code]. The terminal viewer turns
// it into a status banner, the HTTP API into a response status and an
// error body. Two stages produce user-facing failures: extracting the
// diagram from a document and rendering it. Recovering the graph from a
// rendered scene never fails.
//
//	err := errors.New(errors.ErrCodeDiagramNotFound, "no mermaid block in %s", name)
//	if errors.Is(err, errors.ErrCodeDiagramNotFound) {
//	    // offer to open another file
//	}
//
// [Is] matches codes. Use the standard library's errors.Is for sentinels.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// Rejected input: documents, names, element ids, paths and settings.
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFileType Code = "INVALID_FILE_TYPE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Missing things.
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeDiagramNotFound Code = "DIAGRAM_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Renderer failures. SYNTAX_ERROR is the diagram's fault, RENDER_FAILED
	// the renderer's.
	ErrCodeSyntax       Code = "SYNTAX_ERROR"
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost coded error in err's chain, or
// the empty code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the text shown in a status banner. Renderer failures
// keep the renderer's own message so the user can find the mistake in the
// diagram. Other coded errors show only their message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil && (e.Code == ErrCodeSyntax || e.Code == ErrCodeRenderFailed) {
		return e.Message + ": " + UserMessage(e.Cause)
	}
	return e.Message
}
